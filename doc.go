// Package godcop is your in-memory toolkit for modeling and solving
// Distributed Constraint Optimization Problems (DCOPs) — from core model
// primitives to complete, exchangeable message-passing solvers.
//
// 🚀 What is godcop?
//
//	A modular DCOP library that brings together:
//		• Core primitives: variables, finite domains, cost constraints, agents
//		• Structure builders: pseudo-trees (DFS + back edges), factor graphs
//		• Complete inference: DPOP (UTIL/VALUE dynamic programming)
//		• Approximate inference: Max-Sum (loopy belief propagation)
//		• Local search: DSA-A / DSA-B (stochastic value flips)
//		• Baseline: exhaustive search for small instances
//		• Runtime: one round-based engine, deterministic or concurrent
//
// ✨ Why choose godcop?
//
//   - One model, many solvers – every algorithm consumes the same *dcop.Model
//   - Deterministic replay – simulate mode yields bit-identical runs
//   - Honest outcomes – Converged and Partial flags instead of silent guesses
//   - Pure message passing – computations share no state, only messages
//
// Under the hood, everything is organized by concern:
//
//	dcop/        — Variable, Constraint, Model, Assignment, Solution
//	pseudotree/  — DFS pseudo-tree construction, separators, validation
//	factorgraph/ — bipartite variable/factor view of a model
//	transport/   — in-memory message bus with per-edge FIFO ordering
//	runtime/     — round engine, termination detectors, metrics, tracing
//	dpop/        — exact dynamic programming over a pseudo-tree
//	maxsum/      — damped min-sum belief propagation on the factor graph
//	dsa/         — distributed stochastic local search
//	exhaustive/  — brute-force reference solver
//	problems/    — graph-coloring style generators for tests and examples
//	config/      — YAML algorithm selection and engine options
//
// Quick ASCII example:
//
//	    v0───v1
//	     │   │
//	    v2───v3
//
//	four variables in a not-equal ring: two colors suffice, and every
//	solver here finds a zero-cost assignment.
//
// Dive into the per-package docs for the algorithm contracts, cost
// semantics, and termination guarantees.
//
//	go get github.com/dcoplib/godcop
package godcop
