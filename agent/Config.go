package agent

import (
	"fmt"
	"reflect"

	"github.com/samuelfneumann/goddpg/environment"
)

// Config represents a configuration for creating an agent
type Config interface {
	// CreateAgent creates the agent that the config describes
	CreateAgent(env environment.Environment, seed uint64) (Agent, error)

	// ValidAgent returns whether the argument agent is valid for the
	// Config
	ValidAgent(Agent) bool

	// Type returns the type of agent that the Config constructs
	Type() Type

	// Validate returns an error describing whether or not the
	// configuration is valid or not.
	Validate() error
}

// ConfigList represents a list of Config's of a single agent Type in a
// more efficient manner than a slice of Config's. A ConfigList stores
// a slice of settings for each field of its Config type and represents
// every Config in the cross product of these settings.
type ConfigList interface {
	// Config returns an empty Config of the type stored in the list
	Config() Config

	// Type returns the type of agent that Config's in the list
	// construct
	Type() Type

	// Len returns the number of Config's in the list
	Len() int

	// NumFields returns the number of settable fields per Config
	NumFields() int
}

// ConfigAt returns the Config at index i in a ConfigList.
//
// Each field of the returned Config is filled with one of the settings
// stored in the same-named field of the ConfigList, with earlier
// fields cycling through their settings fastest. ConfigAt panics if i
// is out of range, which is a programming error.
func ConfigAt(i int, configs ConfigList) Config {
	if i < 0 || i >= configs.Len() {
		panic(fmt.Sprintf("configAt: index %v out of range with list "+
			"length %v", i, configs.Len()))
	}

	listValue := reflect.ValueOf(configs)
	config := reflect.New(reflect.TypeOf(configs.Config())).Elem()

	for field := 0; field < listValue.NumField(); field++ {
		settings := listValue.Field(field)
		if settings.Kind() != reflect.Slice || settings.Len() == 0 {
			continue
		}

		name := listValue.Type().Field(field).Name
		target := config.FieldByName(name)
		if !target.IsValid() || !target.CanSet() {
			continue
		}

		target.Set(settings.Index(i % settings.Len()))
		i /= settings.Len()
	}

	return config.Interface().(Config)
}
