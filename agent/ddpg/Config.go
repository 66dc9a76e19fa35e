package ddpg

import (
	"fmt"
	"reflect"

	"github.com/samuelfneumann/goddpg/agent"
	env "github.com/samuelfneumann/goddpg/environment"
	"github.com/samuelfneumann/goddpg/expreplay"
	"github.com/samuelfneumann/goddpg/initwfn"
	"github.com/samuelfneumann/goddpg/network"
	"github.com/samuelfneumann/goddpg/solver"
)

func init() {
	// Register ConfigList type so that it can be typed using
	// agent.TypedConfigList to help with serialization/deserialization.
	agent.Register(agent.DDPGMLP, ConfigList{})
}

// ConfigList implements a list of Config's in a more efficient manner
// than simply using a slice of Config's.
type ConfigList struct {
	ActorLayers      [][]int                 // Actor layer sizes
	ActorBiases      [][]bool                // Whether actor layers have biases
	ActorActivations [][]*network.Activation // Actor layer activations
	ActorSolver      []*solver.Solver        // Solver for actor weights

	CriticLayers      [][]int                 // Critic layer sizes
	CriticBiases      [][]bool                // Whether critic layers have biases
	CriticActivations [][]*network.Activation // Critic layer activations
	CriticSolver      []*solver.Solver        // Solver for critic weights

	// Initialization algorithm for weights
	InitWFn []*initwfn.InitWFn

	// Experience replay parameters
	ExpReplay []expreplay.Config

	// Ornstein-Uhlenbeck exploration noise parameters
	ExplorationMu    []float64
	ExplorationTheta []float64
	ExplorationSigma []float64

	PolicyDamping []float64 // Scale on the policy's action during exploration

	Gamma     []float64 // Discount factor
	TauActor  []float64 // Actor target Polyak averaging constant
	TauCritic []float64 // Critic target Polyak averaging constant
}

// NewConfigList returns a new ConfigList as an agent.TypedConfigList.
// Because the returned value is a TypedList, it can safely be JSON
// serialized and deserialized without specifying what the type of
// the ConfigList is.
func NewConfigList(
	ActorLayers [][]int,
	ActorBiases [][]bool,
	ActorActivations [][]*network.Activation,
	ActorSolver []*solver.Solver,
	CriticLayers [][]int,
	CriticBiases [][]bool,
	CriticActivations [][]*network.Activation,
	CriticSolver []*solver.Solver,
	InitWFn []*initwfn.InitWFn,
	ExpReplay []expreplay.Config,
	ExplorationMu []float64,
	ExplorationTheta []float64,
	ExplorationSigma []float64,
	PolicyDamping []float64,
	Gamma []float64,
	TauActor []float64,
	TauCritic []float64,
) agent.TypedConfigList {
	configs := ConfigList{
		ActorLayers:      ActorLayers,
		ActorBiases:      ActorBiases,
		ActorActivations: ActorActivations,
		ActorSolver:      ActorSolver,

		CriticLayers:      CriticLayers,
		CriticBiases:      CriticBiases,
		CriticActivations: CriticActivations,
		CriticSolver:      CriticSolver,

		InitWFn:   InitWFn,
		ExpReplay: ExpReplay,

		ExplorationMu:    ExplorationMu,
		ExplorationTheta: ExplorationTheta,
		ExplorationSigma: ExplorationSigma,

		PolicyDamping: PolicyDamping,

		Gamma:     Gamma,
		TauActor:  TauActor,
		TauCritic: TauCritic,
	}

	return agent.NewTypedConfigList(configs)
}

// Type returns the type of Config stored in the list
func (c ConfigList) Type() agent.Type {
	return c.Config().Type()
}

// NumFields returns the number of settable fields in a Config
func (c ConfigList) NumFields() int {
	rValue := reflect.ValueOf(c)
	return rValue.NumField()
}

// Config returns an empty Config of the same type as that stored
// by the ConfigList
func (c ConfigList) Config() agent.Config {
	return Config{}
}

// Len returns the number of Config's in the list
func (c ConfigList) Len() int {
	length := 1
	rValue := reflect.ValueOf(c)
	for field := 0; field < rValue.NumField(); field++ {
		length *= rValue.Field(field).Len()
	}
	return length
}

// Config implements a configuration for a DDPG agent
type Config struct {
	ActorLayers      []int                 // Actor layer sizes
	ActorBiases      []bool                // Whether actor layers have biases
	ActorActivations []*network.Activation // Actor layer activations
	ActorSolver      *solver.Solver        // Solver for actor weights

	CriticLayers      []int                 // Critic layer sizes
	CriticBiases      []bool                // Whether critic layers have biases
	CriticActivations []*network.Activation // Critic layer activations
	CriticSolver      *solver.Solver        // Solver for critic weights

	// Initialization algorithm for weights
	InitWFn *initwfn.InitWFn

	// Experience replay parameters
	ExpReplay expreplay.Config

	// Ornstein-Uhlenbeck exploration noise parameters
	ExplorationMu    float64
	ExplorationTheta float64
	ExplorationSigma float64

	// PolicyDamping scales the deterministic action before exploration
	// noise is added during training
	PolicyDamping float64

	Gamma     float64 // Discount factor
	TauActor  float64 // Actor target Polyak averaging constant
	TauCritic float64 // Critic target Polyak averaging constant
}

// DefaultConfig returns the reference hyperparameter configuration for
// a DDPG agent
func DefaultConfig() Config {
	actorSolver, err := solver.NewDefaultAdam(0.0001, 128)
	if err != nil {
		panic(fmt.Sprintf("defaultConfig: could not create actor "+
			"solver: %v", err))
	}
	criticSolver, err := solver.NewDefaultAdam(0.001, 128)
	if err != nil {
		panic(fmt.Sprintf("defaultConfig: could not create critic "+
			"solver: %v", err))
	}
	init, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		panic(fmt.Sprintf("defaultConfig: could not create weight "+
			"initializer: %v", err))
	}

	return Config{
		ActorLayers:      []int{100, 50, 25},
		ActorBiases:      []bool{true, true, true},
		ActorActivations: []*network.Activation{network.ReLU(),
			network.ReLU(), network.ReLU()},
		ActorSolver: actorSolver,

		CriticLayers:      []int{100, 50, 25},
		CriticBiases:      []bool{true, true, true},
		CriticActivations: []*network.Activation{network.ReLU(),
			network.ReLU(), network.ReLU()},
		CriticSolver: criticSolver,

		InitWFn: init,

		ExpReplay: expreplay.Config{
			SampleMethod:      expreplay.Uniform,
			SampleSize:        128,
			MaxReplayCapacity: 10000,
			MinReplayCapacity: 129,
		},

		ExplorationMu:    0.0,
		ExplorationTheta: 0.05,
		ExplorationSigma: 0.25,

		PolicyDamping: 0.2,

		Gamma:     0.999,
		TauActor:  0.1,
		TauCritic: 0.5,
	}
}

// BatchSize returns the batch size of the agent constructed using this
// Config
func (c Config) BatchSize() int {
	return c.ExpReplay.SampleSize
}

// Type returns the type of the configuration
func (c Config) Type() agent.Type {
	return agent.DDPGMLP
}

// Validate checks a Config to ensure it is a valid configuration of a
// DDPG agent.
func (c Config) Validate() error {
	if len(c.ActorLayers) != len(c.ActorBiases) {
		return fmt.Errorf("new: invalid number of actor biases"+
			"\n\twant(%v)\n\thave(%v)", len(c.ActorLayers),
			len(c.ActorBiases))
	}
	if len(c.ActorLayers) != len(c.ActorActivations) {
		return fmt.Errorf("new: invalid number of actor activations"+
			"\n\twant(%v)\n\thave(%v)", len(c.ActorLayers),
			len(c.ActorActivations))
	}

	if len(c.CriticLayers) != len(c.CriticBiases) {
		return fmt.Errorf("new: invalid number of critic biases"+
			"\n\twant(%v)\n\thave(%v)", len(c.CriticLayers),
			len(c.CriticBiases))
	}
	if len(c.CriticLayers) != len(c.CriticActivations) {
		return fmt.Errorf("new: invalid number of critic activations"+
			"\n\twant(%v)\n\thave(%v)", len(c.CriticLayers),
			len(c.CriticActivations))
	}

	if c.ActorSolver == nil || c.CriticSolver == nil {
		return fmt.Errorf("new: no solver provided")
	}
	if c.InitWFn == nil {
		return fmt.Errorf("new: no weight initializer provided")
	}

	if c.Gamma < 0.0 || c.Gamma > 1.0 {
		return fmt.Errorf("new: discount must be in [0, 1] \n\thave(%v)",
			c.Gamma)
	}
	if c.TauActor < 0.0 || c.TauActor > 1.0 {
		return fmt.Errorf("new: actor tau must be in [0, 1] \n\thave(%v)",
			c.TauActor)
	}
	if c.TauCritic < 0.0 || c.TauCritic > 1.0 {
		return fmt.Errorf("new: critic tau must be in [0, 1] "+
			"\n\thave(%v)", c.TauCritic)
	}

	if c.PolicyDamping <= 0.0 || c.PolicyDamping > 1.0 {
		return fmt.Errorf("new: policy damping must be in (0, 1] "+
			"\n\thave(%v)", c.PolicyDamping)
	}
	if c.ExplorationSigma < 0.0 {
		return fmt.Errorf("new: exploration sigma must be non-negative "+
			"\n\thave(%v)", c.ExplorationSigma)
	}

	if err := c.ExpReplay.Validate(); err != nil {
		return fmt.Errorf("new: %v", err)
	}

	// Learning waits until the buffer holds strictly more transitions
	// than one batch
	if c.ExpReplay.MinReplayCapacity <= c.ExpReplay.SampleSize {
		return fmt.Errorf("new: min replay capacity must exceed the "+
			"sample size \n\twant(>%v) \n\thave(%v)", c.ExpReplay.SampleSize,
			c.ExpReplay.MinReplayCapacity)
	}

	return nil
}

// ValidAgent returns whether the agent is valid for the configuration.
// That is, whether Agent a can be constructed with Config c.
func (c Config) ValidAgent(a agent.Agent) bool {
	_, ok := a.(*DDPG)
	return ok
}

// CreateAgent creates a new DDPG agent based on the configuration
func (c Config) CreateAgent(e env.Environment, seed uint64) (agent.Agent,
	error) {
	return New(e, c, seed)
}
