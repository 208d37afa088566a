package tests

import (
	"moonbench/internal/tests/leveling"
	"moonbench/internal/tests/position"
	"moonbench/internal/tests/probe"
)

func Init() {
	probe.Init()
	leveling.Init()
	position.Init()
}
