package engine3D

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreprocessSortsDefines(t *testing.T) {
	out := Preprocess("void main() {}\n", map[string]int{"SOFT_EDGES": 1, "BLENDMODE": 2})
	lines := strings.Split(out, "\n")
	assert.Equal(t, "#version 330", lines[0])
	assert.Equal(t, "#define BLENDMODE 2", lines[1])
	assert.Equal(t, "#define SOFT_EDGES 1", lines[2])
	assert.Equal(t, "void main() {}", lines[3])
}

func TestPreprocessWithoutCombos(t *testing.T) {
	out := Preprocess(particleVertexShader, nil)
	assert.True(t, strings.HasPrefix(out, "#version 330\n"))
	assert.Contains(t, out, "uniform mat4 mvp;")
}
