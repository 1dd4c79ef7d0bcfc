package main

import (
	"github.com/joeydtaylor/steeze-urlbridge/pkg/serverfx"
	"go.uber.org/fx"
)

func main() {
	fx.New(serverfx.Module()).Run()
}
