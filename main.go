package main

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r1"

	"github.com/samuelfneumann/goddpg/agent/ddpg"
	"github.com/samuelfneumann/goddpg/environment"
	"github.com/samuelfneumann/goddpg/environment/classiccontrol/mountaincar"
	"github.com/samuelfneumann/goddpg/experiment"
	"github.com/samuelfneumann/goddpg/experiment/checkpointer"
	"github.com/samuelfneumann/goddpg/experiment/tracker"
)

func main() {
	var seed uint64 = 192382

	// Create the environment, starting episodes near the valley floor
	// with no velocity
	positionBounds := r1.Interval{Min: -0.6, Max: -0.4}
	velocityBounds := r1.Interval{Min: 0.0, Max: 0.0}

	s := environment.NewUniformStarter([]r1.Interval{
		positionBounds,
		velocityBounds,
	}, seed)
	task := mountaincar.NewGoal(s, 1000, mountaincar.GoalPosition)
	m, _, err := mountaincar.NewContinuous(task, 0.999)
	if err != nil {
		panic(err)
	}

	// Create the learning algorithm with the reference hyperparameters
	agent, err := ddpg.New(m, ddpg.DefaultConfig(), seed)
	if err != nil {
		panic(err)
	}
	defer agent.Close()

	// Track episodic returns and checkpoint the learned policy
	// periodically
	var returns tracker.Tracker = tracker.NewReturn("./data.bin")
	policyCheckpoint := checkpointer.NewNStep(10_000, agent.Policy(),
		checkpointer.FilenameEnumerator(0, "./policy", ".bin"))

	// Experiment
	e := experiment.NewOnline(m, agent, 100_000,
		[]tracker.Tracker{returns},
		[]checkpointer.Checkpointer{policyCheckpoint})
	e.Run()
	e.Save()

	data := tracker.LoadData("./data.bin")
	if len(data) > 10 {
		data = data[len(data)-10:]
	}
	fmt.Println(data)
}
