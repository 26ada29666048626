package main

import (
	_ "github.com/KimMachineGun/automemlimit"
	"github.com/zedseven/vanilla/cmd"
	_ "go.uber.org/automaxprocs"
)

var (
	version      = "0.0.1"
	artifactArch = "linux_x86_64"
)

func main() {
	cmd.Execute(version, artifactArch)
}
