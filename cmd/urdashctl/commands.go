package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dhalvorsen/urdash/internal/dashboard"
)

// commandFunc executes one dashboard operation and returns the reply text.
type commandFunc func(d *dashboard.Client, args []string) (string, error)

var commands = map[string]commandFunc{
	"load": func(d *dashboard.Client, args []string) (string, error) {
		if len(args) != 1 {
			return "", fmt.Errorf("usage: load <program.urp>")
		}
		return d.Load(args[0])
	},
	"play": func(d *dashboard.Client, args []string) (string, error) {
		return d.Play()
	},
	"stop": func(d *dashboard.Client, args []string) (string, error) {
		return d.Stop()
	},
	"pause": func(d *dashboard.Client, args []string) (string, error) {
		return d.Pause()
	},
	"shutdown": func(d *dashboard.Client, args []string) (string, error) {
		return d.Shutdown()
	},
	"running": func(d *dashboard.Client, args []string) (string, error) {
		running, err := d.Running()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%t", running), nil
	},
	"robotmode": func(d *dashboard.Client, args []string) (string, error) {
		return d.RobotMode()
	},
	"loaded-program": func(d *dashboard.Client, args []string) (string, error) {
		return d.GetLoadedProgram()
	},
	"popup": func(d *dashboard.Client, args []string) (string, error) {
		if len(args) == 0 {
			return "", fmt.Errorf("usage: popup <text>")
		}
		return d.Popup(strings.Join(args, " "))
	},
	"close-popup": func(d *dashboard.Client, args []string) (string, error) {
		return d.ClosePopup()
	},
	"add-log": func(d *dashboard.Client, args []string) (string, error) {
		if len(args) == 0 {
			return "", fmt.Errorf("usage: add-log <message>")
		}
		return d.AddLog(strings.Join(args, " "))
	},
	"set-user-role": func(d *dashboard.Client, args []string) (string, error) {
		if len(args) != 1 {
			return "", fmt.Errorf("usage: set-user-role <role>")
		}
		return d.SetUserRole(args[0])
	},
	"is-saved": func(d *dashboard.Client, args []string) (string, error) {
		return d.IsProgramSaved()
	},
	"program-state": func(d *dashboard.Client, args []string) (string, error) {
		return d.ProgramState()
	},
	"polyscope-version": func(d *dashboard.Client, args []string) (string, error) {
		return d.PolyscopeVersion()
	},
	"power-on": func(d *dashboard.Client, args []string) (string, error) {
		return d.PowerOn()
	},
	"power-off": func(d *dashboard.Client, args []string) (string, error) {
		return d.PowerOff()
	},
	"brake-release": func(d *dashboard.Client, args []string) (string, error) {
		return d.BrakeRelease()
	},
	"safety-mode": func(d *dashboard.Client, args []string) (string, error) {
		return d.SafetyMode()
	},
	"unlock-protective-stop": func(d *dashboard.Client, args []string) (string, error) {
		return d.UnlockProtectiveStop()
	},
	"close-safety-popup": func(d *dashboard.Client, args []string) (string, error) {
		return d.CloseSafetyPopup()
	},
	"load-installation": func(d *dashboard.Client, args []string) (string, error) {
		if len(args) != 1 {
			return "", fmt.Errorf("usage: load-installation <file>")
		}
		return d.LoadInstallation(args[0])
	},
}

func runCommand(d *dashboard.Client, args []string) (string, error) {
	fn, ok := commands[args[0]]
	if !ok {
		return "", fmt.Errorf("unknown command %q (available: %s)", args[0], strings.Join(commandNames(), ", "))
	}
	return fn(d, args[1:])
}

func commandNames() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
