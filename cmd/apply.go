package cmd

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/ghodss/yaml"
	"github.com/spf13/cobra"

	"github.com/notargets/gomopt/element"
	"github.com/notargets/gomopt/mesh"
	"github.com/notargets/gomopt/pa"
)

type InputParameters struct {
	Title           string  `yaml:"Title"`
	PolynomialOrder int     `yaml:"PolynomialOrder"`
	QuadratureOrder int     `yaml:"QuadratureOrder"`
	GridNx          int     `yaml:"GridNx"`
	GridNy          int     `yaml:"GridNy"`
	TargetAspect    float64 `yaml:"TargetAspect"`
	Repetitions     int     `yaml:"Repetitions"`
	ProcLimit       int     `yaml:"ProcLimit"`
}

func (ip *InputParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, ip)
}

func (ip *InputParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%d]\t\t\t= Polynomial Order\n", ip.PolynomialOrder)
	fmt.Printf("[%d]\t\t\t= Quadrature Order\n", ip.QuadratureOrder)
	fmt.Printf("[%d x %d]\t\t= Grid\n", ip.GridNx, ip.GridNy)
	fmt.Printf("%8.5f\t\t= Target Aspect\n", ip.TargetAspect)
	fmt.Printf("[%d]\t\t\t= Repetitions\n", ip.Repetitions)
}

func defaultParameters() *InputParameters {
	return &InputParameters{
		Title:           "Hessian action",
		PolynomialOrder: 3,
		QuadratureOrder: 3,
		GridNx:          32,
		GridNy:          32,
		TargetAspect:    1.,
		Repetitions:     100,
	}
}

// ApplyCmd represents the apply command
var ApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Benchmark the matrix-free Hessian action on a Cartesian test mesh",
	Long: `
Builds a Cartesian quadrilateral mesh on the unit square, runs the one-time
tensor setup at the current node positions, then applies the Hessian of the
shape quality functional to a smooth direction field repeatedly, reporting
timing and output norms.

gomopt apply`,
	Run: func(cmd *cobra.Command, args []string) {
		ip := defaultParameters()
		if pf, _ := cmd.Flags().GetString("parametersFile"); len(pf) != 0 {
			data, err := os.ReadFile(pf)
			if err != nil {
				fmt.Printf("error reading parameters file: %s\n", err.Error())
				os.Exit(1)
			}
			if err = ip.Parse(data); err != nil {
				fmt.Printf("error parsing parameters file: %s\n", err.Error())
				os.Exit(1)
			}
		}
		if n, _ := cmd.Flags().GetInt("n"); n != 0 {
			ip.PolynomialOrder = n
			ip.QuadratureOrder = n
		}
		if q, _ := cmd.Flags().GetInt("q"); q != 0 {
			ip.QuadratureOrder = q
		}
		if k, _ := cmd.Flags().GetInt("k"); k != 0 {
			ip.GridNx, ip.GridNy = k, k
		}
		ip.ProcLimit, _ = cmd.Flags().GetInt("procLimit")
		ip.Print()
		RunApply(ip)
	},
}

func init() {
	rootCmd.AddCommand(ApplyCmd)
	ApplyCmd.Flags().StringP("parametersFile", "I", "", "yaml parameters file")
	ApplyCmd.Flags().IntP("n", "n", 0, "polynomial degree")
	ApplyCmd.Flags().IntP("q", "q", 0, "quadrature degree")
	ApplyCmd.Flags().IntP("k", "k", 0, "number of elements per grid direction")
	ApplyCmd.Flags().IntP("procLimit", "p", 0, "limit parallelism to this number of go routines")
}

func RunApply(ip *InputParameters) {
	var (
		tb  = element.NewTensorBasis2D(ip.PolynomialOrder, ip.QuadratureOrder)
		msh = mesh.NewCartesian(ip.GridNx, ip.GridNy, tb)
	)
	xe := msh.Coordinates()
	re := smoothDirection(msh)
	ce := make([]float64, len(re))

	op := pa.NewHessianOperator(tb, pa.TargetAspect(ip.TargetAspect), msh.NE, ip.ProcLimit)

	start := time.Now()
	op.Setup(xe)
	setupTime := time.Since(start)

	reps := ip.Repetitions
	if reps < 1 {
		reps = 1
	}
	start = time.Now()
	for rep := 0; rep < reps; rep++ {
		for i := range ce {
			ce[i] = 0
		}
		op.AddMultHessian(xe, re, ce)
	}
	applyTime := time.Since(start) / time.Duration(reps)

	fmt.Printf("NE = %d, dofs = %d\n", msh.NE, 2*msh.Nnodes)
	fmt.Printf("setup: %v, apply: %v/call\n", setupTime, applyTime)
	fmt.Printf("|Hd|_2 = %8.5e, |Hd|_inf = %8.5e\n", norm2(ce), normInf(ce))
}

// smoothDirection is a divergence-like perturbation field, zero on the
// domain boundary, gathered into E-vector layout.
func smoothDirection(msh *mesh.Cartesian) []float64 {
	global := make([]float64, 2*msh.Nnodes)
	for node := 0; node < msh.Nnodes; node++ {
		x, y := msh.XY[node], msh.XY[node+msh.Nnodes]
		global[node] = math.Sin(math.Pi*x) * math.Sin(math.Pi*y)
		global[node+msh.Nnodes] = math.Sin(2*math.Pi*x) * math.Sin(2*math.Pi*y)
	}
	return msh.Gather(global)
}

func norm2(v []float64) (n float64) {
	for _, val := range v {
		n += val * val
	}
	return math.Sqrt(n)
}

func normInf(v []float64) (n float64) {
	for _, val := range v {
		if math.Abs(val) > n {
			n = math.Abs(val)
		}
	}
	return
}
