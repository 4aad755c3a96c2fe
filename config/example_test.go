package config_test

import (
	"context"
	"fmt"

	"github.com/dcoplib/godcop/config"
	"github.com/dcoplib/godcop/problems"
)

// ExampleConfig_Solve selects a solver from a YAML document and runs it.
func ExampleConfig_Solve() {
	cfg, err := config.Parse([]byte(`
algorithm: dpop
mode: min
execution:
  timeout: 10s
`))
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	m, err := problems.Triangle()
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	sol, err := cfg.Solve(context.Background(), m)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(sol.Algorithm, "cost:", sol.Cost)
	// Output:
	// dpop cost: 1
}
