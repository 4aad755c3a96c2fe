// Package dcop defines the problem model shared by every solver in godcop:
// variables with ordered finite domains, agents owning those variables,
// cost constraints over variable tuples, the derived constraint graph, and
// the Solution record produced by a solve run.
//
// A Model is immutable once constructed. NewModel validates its inputs and
// precomputes the constraint graph (an undirected graph over variables with
// an edge wherever two variables share a constraint), so builders and
// algorithms only ever read from it.
//
// Conventions:
//
//   - Domain order is significant. Algorithms break cost ties by preferring
//     the value that appears first in the domain, which makes runs
//     reproducible.
//   - Costs are float64. math.Inf(1) encodes a hard (forbidden) combination.
//   - Optimization direction is a Mode (Minimize or Maximize) chosen per
//     solve, not baked into the model.
//
// Errors:
//
//   - ErrInvalidModel        - umbrella sentinel for every validation failure.
//   - ErrEmptyDomain         - a variable has no domain values.
//   - ErrDuplicateID         - two variables or two constraints share an ID.
//   - ErrUnknownVariable     - a constraint scope names an undeclared variable.
//   - ErrEmptyScope          - a constraint has no variables in scope.
//   - ErrIncompleteAssignment - a cost query is missing a scoped variable.
//
// All specific sentinels wrap ErrInvalidModel where applicable, so
// errors.Is(err, ErrInvalidModel) catches the whole class.
package dcop
