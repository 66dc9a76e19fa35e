package experiment

import (
	"time"

	"github.com/aunum/log"

	"github.com/samuelfneumann/goddpg/agent"
	env "github.com/samuelfneumann/goddpg/environment"
	"github.com/samuelfneumann/goddpg/experiment/checkpointer"
	"github.com/samuelfneumann/goddpg/experiment/tracker"
	ts "github.com/samuelfneumann/goddpg/timestep"
	"github.com/samuelfneumann/goddpg/utils/progressbar"
)

// Online is an Experiment that runs an agent online only. No offline
// evaluation is performed.
type Online struct {
	env.Environment
	agent.Agent
	maxSteps      uint
	currentSteps  uint
	trackers      []tracker.Tracker
	checkpointers []checkpointer.Checkpointer
	bar           *progressbar.ProgressBar
}

// NewOnline creates and returns a new online experiment on a given
// environment with a given agent. The steps parameter determines how
// many timesteps the experiment is run for. The t parameter is a
// slice of tracker.Tracker which determine what data is tracked and
// saved, and the c parameter is a slice of checkpointer.Checkpointer
// which determine what is checkpointed and when.
func NewOnline(e env.Environment, a agent.Agent, steps uint,
	t []tracker.Tracker, c []checkpointer.Checkpointer) *Online {
	bar := progressbar.NewProgressBar(40, int(steps), time.Second, false)

	return &Online{
		Environment:   e,
		Agent:         a,
		maxSteps:      steps,
		currentSteps:  0,
		trackers:      t,
		checkpointers: c,
		bar:           bar,
	}
}

// Register registers a tracker.Tracker with an Experiment so that
// data generated during the experiment can be tracked and saved
func (o *Online) Register(t tracker.Tracker) {
	o.trackers = append(o.trackers, t)
}

// RunEpisode runs a single episode of the experiment and returns
// whether or not the experiment's step limit has been reached
func (o *Online) RunEpisode() bool {
	step, err := o.Environment.Reset()
	if err != nil {
		log.Fatalf("runEpisode: could not reset environment: %v", err)
	}
	if err := o.Agent.ObserveFirst(step); err != nil {
		log.Fatalf("runEpisode: could not observe first timestep: %v", err)
	}
	o.track(step)
	o.checkpoint(step)

	// Run the next timestep
	for !step.Last() && o.currentSteps < o.maxSteps {
		o.currentSteps++
		o.bar.Increment()

		// Select action, step in environment
		action := o.Agent.SelectAction(step)
		step, _, err = o.Environment.Step(action)
		if err != nil {
			log.Fatalf("runEpisode: could not step environment: %v", err)
		}

		// Cache the environment step in each Tracker
		o.track(step)
		o.checkpoint(step)

		// Observe the timestep and step the agent
		if err := o.Agent.Observe(action, step); err != nil {
			log.Fatalf("runEpisode: could not observe timestep: %v", err)
		}
		if err := o.Agent.Step(); err != nil {
			log.Fatalf("runEpisode: could not step agent: %v", err)
		}
	}

	// Return whether or not the max timestep limit has been reached
	return o.currentSteps >= o.maxSteps
}

// Run runs the entire experiment for all timesteps
func (o *Online) Run() {
	o.bar.Display()
	defer o.bar.Close()

	ended := false
	for !ended {
		ended = o.RunEpisode()
	}
}

// Save saves all the data cached by the Trackers to disk
func (o *Online) Save() {
	for _, t := range o.trackers {
		t.Save()
	}
}

// track tracks the current timestep by caching its data in each
// Tracker
func (o *Online) track(t ts.TimeStep) {
	for _, tracker := range o.trackers {
		tracker.Track(t)
	}
}

// checkpoint saves the states of any objects that should be
// checkpointed on the current timestep
func (o *Online) checkpoint(t ts.TimeStep) {
	for _, c := range o.checkpointers {
		if err := c.Checkpoint(t); err != nil {
			log.Fatalf("checkpoint: could not checkpoint: %v", err)
		}
	}
}
