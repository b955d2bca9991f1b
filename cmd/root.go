package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gomopt",
	Short: "Mesh quality optimization kernels for tensor product finite elements",
	Long: `
Matrix-free (partial assembly) Hessian kernels for a 2D mesh quality shape
functional over quadrilateral tensor product elements. The Hessian of the
shape metric is never assembled - a compact per quadrature point tensor is
computed once per linearization point and applied to direction fields by sum
factorization.

gomopt`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
