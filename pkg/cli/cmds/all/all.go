// Package all registers every shell command.
package all

import (
	// Commands.
	_ "github.com/robotalks/impactlog/pkg/cli/cmds/capture"
	_ "github.com/robotalks/impactlog/pkg/cli/cmds/flash"
)
