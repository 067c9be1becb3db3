package engine3D

import (
	"errors"
	"fmt"
	"strings"

	"linux-particleengine/internal/utils"

	rl "github.com/gen2brain/raylib-go/raylib"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var ErrShader = errors.New("engine3D: shader failed to compile")

const particleVertexShader = `
in vec3 vertexPosition;
in vec2 vertexTexCoord;
in vec4 vertexColor;

uniform mat4 mvp;

out vec2 fragTexCoord;
out vec4 fragColor;

void main()
{
    fragTexCoord = vertexTexCoord;
    fragColor = vertexColor;
    gl_Position = mvp*vec4(vertexPosition, 1.0);
}
`

const particleFragmentShader = `
in vec2 fragTexCoord;
in vec4 fragColor;

uniform sampler2D texture0;
uniform vec4 colDiffuse;
uniform float g_Time;
uniform float g_Daytime;
uniform vec2 g_PointerPosition;
uniform float g_Brightness;
uniform float g_AlphaCutoff;

out vec4 finalColor;

void main()
{
    vec4 texel = texture(texture0, fragTexCoord)*fragColor*colDiffuse;
#if SOFT_EDGES
    vec2 d = fragTexCoord*2.0 - 1.0;
    texel.a *= clamp(1.0 - dot(d, d), 0.0, 1.0);
#endif
    if (texel.a < g_AlphaCutoff) discard;
    finalColor = vec4(texel.rgb*g_Brightness, texel.a);
}
`

// ShaderParameters holds uniform locations; -1 means the shader does not
// use the uniform.
type ShaderParameters struct {
	Time        int32
	Daytime     int32
	Pointer     int32
	Brightness  int32
	AlphaCutoff int32
}

// GlobalState is the per-frame input shared by every particle draw.
type GlobalState struct {
	Time float32
	// Daytime is the elapsed fraction of the local day, see TimeOfDay.
	Daytime     float32
	PointerX    float32
	PointerY    float32
	Brightness  float32
	AlphaCutoff float32
}

type ParticleShader struct {
	Shader     rl.Shader
	Parameters ShaderParameters
}

// Preprocess prepends the GLSL version and one #define per combo, in
// name order.
func Preprocess(source string, combos map[string]int) string {
	var sb strings.Builder
	sb.WriteString("#version 330\n")
	keys := maps.Keys(combos)
	slices.Sort(keys)
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("#define %s %d\n", k, combos[k]))
	}
	sb.WriteString(source)
	return sb.String()
}

// LoadParticleShader compiles the particle shader. It needs a live GL
// context.
func LoadParticleShader(softEdges bool) (*ParticleShader, error) {
	combos := map[string]int{"SOFT_EDGES": 0}
	if softEdges {
		combos["SOFT_EDGES"] = 1
	}
	shader := rl.LoadShaderFromMemory(Preprocess(particleVertexShader, nil), Preprocess(particleFragmentShader, combos))
	if shader.ID == 0 {
		return nil, ErrShader
	}
	utils.Debug("Shader: particle shader loaded (soft edges %t)", softEdges)
	return &ParticleShader{Shader: shader, Parameters: ResolveShaderLocations(shader)}, nil
}

// ResolveShaderLocations queries a shader for the uniforms particles use.
func ResolveShaderLocations(shader rl.Shader) ShaderParameters {
	parameters := ShaderParameters{
		Time:        rl.GetShaderLocation(shader, "g_Time"),
		Daytime:     rl.GetShaderLocation(shader, "g_Daytime"),
		Pointer:     rl.GetShaderLocation(shader, "g_PointerPosition"),
		Brightness:  rl.GetShaderLocation(shader, "g_Brightness"),
		AlphaCutoff: rl.GetShaderLocation(shader, "g_AlphaCutoff"),
	}
	if parameters.Pointer == -1 {
		parameters.Pointer = rl.GetShaderLocation(shader, "g_Pointer")
	}
	return parameters
}

// Apply uploads the frame's uniforms.
func (s *ParticleShader) Apply(state GlobalState) {
	p := &s.Parameters
	if p.Time != -1 {
		rl.SetShaderValue(s.Shader, p.Time, []float32{state.Time}, rl.ShaderUniformFloat)
	}
	if p.Daytime != -1 {
		rl.SetShaderValue(s.Shader, p.Daytime, []float32{state.Daytime}, rl.ShaderUniformFloat)
	}
	if p.Pointer != -1 {
		rl.SetShaderValue(s.Shader, p.Pointer, []float32{state.PointerX*0.5 + 0.5, state.PointerY*0.5 + 0.5}, rl.ShaderUniformVec2)
	}
	if p.Brightness != -1 {
		b := state.Brightness
		if b == 0 {
			b = 1
		}
		rl.SetShaderValue(s.Shader, p.Brightness, []float32{b}, rl.ShaderUniformFloat)
	}
	if p.AlphaCutoff != -1 {
		rl.SetShaderValue(s.Shader, p.AlphaCutoff, []float32{state.AlphaCutoff}, rl.ShaderUniformFloat)
	}
}

func (s *ParticleShader) Unload() {
	rl.UnloadShader(s.Shader)
}
