package InputParameters

import (
	"fmt"
	"sort"

	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML input file
type InputParameters struct {
	Title        string             `yaml:"Title"`
	MeshNx       int                `yaml:"MeshNx"`
	MeshNy       int                `yaml:"MeshNy"`
	NumWorkers   int                `yaml:"NumWorkers"`
	NumRanks     int                `yaml:"NumRanks"`
	Strategy     string             `yaml:"Strategy"` // one of single, atomic, critical
	MaxGroupSize int                `yaml:"MaxGroupSize"`
	SourceValue  float64            `yaml:"SourceValue"`
	BCs          map[string]float64 `yaml:"BCs"` // Key is the boundary name, value the imposed value
	PlotResidual bool               `yaml:"PlotResidual"`
	Monitoring   bool               `yaml:"Monitoring"`
}

func (ip *InputParameters) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, ip); err != nil {
		return err
	}
	if ip.MeshNx < 1 || ip.MeshNy < 1 {
		return fmt.Errorf("mesh dimensions must be positive, have %dx%d", ip.MeshNx, ip.MeshNy)
	}
	if ip.NumWorkers < 1 {
		ip.NumWorkers = 1
	}
	if ip.NumRanks < 1 {
		ip.NumRanks = 1
	}
	if ip.Strategy == "" {
		ip.Strategy = "atomic"
	}
	return nil
}

func (ip *InputParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%dx%d]\t\t\t= Mesh Dimensions\n", ip.MeshNx, ip.MeshNy)
	fmt.Printf("[%d]\t\t\t\t= Num Workers\n", ip.NumWorkers)
	fmt.Printf("[%d]\t\t\t\t= Num Ranks\n", ip.NumRanks)
	fmt.Printf("[%s]\t\t\t= Assembly Strategy\n", ip.Strategy)
	fmt.Printf("%8.5f\t\t= SourceValue\n", ip.SourceValue)
	keys := make([]string, len(ip.BCs))
	i := 0
	for k := range ip.BCs {
		keys[i] = k
		i++
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("BCs[%s] = %v\n", key, ip.BCs[key])
	}
}
