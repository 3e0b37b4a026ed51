package runner

import (
	"os/exec"
)

// commandContext is swapped in tests.
var commandContext = exec.CommandContext
