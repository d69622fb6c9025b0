package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agenthub-dev/agenthub/internal/marketplace/validation"
)

const validAgentPy = `
import json
import sys

def run(payload):
    return {"result": payload["prompt"].upper()}

if __name__ == "__main__":
    payload = json.loads(sys.argv[1])
    print(json.dumps(run(payload)))
`

func TestCheckPythonInterfaceValid(t *testing.T) {
	result := validation.CheckPythonInterface(validAgentPy)
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestCheckPythonInterfaceMissingMainGuard(t *testing.T) {
	content := `
import json, sys
payload = json.loads(sys.argv[1])
print(payload)
`
	result := validation.CheckPythonInterface(content)
	assert.False(t, result.IsValid)
	assert.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `if __name__ == "__main__"`)
}

func TestCheckPythonInterfaceMissingArgParsing(t *testing.T) {
	content := `
if __name__ == "__main__":
    print("hello")
`
	result := validation.CheckPythonInterface(content)
	assert.False(t, result.IsValid)
	assert.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "sys.argv")
}

func TestCheckPythonInterfaceNoPrintIsWarning(t *testing.T) {
	content := `
import json, sys

if __name__ == "__main__":
    payload = json.loads(sys.argv[1])
`
	result := validation.CheckPythonInterface(content)
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
	assert.Len(t, result.Warnings, 1)
}

func TestCheckPythonInterfaceEmptyFile(t *testing.T) {
	result := validation.CheckPythonInterface("   \n\t  ")
	assert.False(t, result.IsValid)
	// Rules are evaluated independently, so an empty file also trips the
	// main-guard and argument-parsing checks.
	assert.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "empty")
	assert.Len(t, result.Warnings, 1)
}
