package glgpu

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/iblviewer/internal/engine/gpu"
)

// pixelBlockBase is the first uniform buffer binding point of the pixel
// stage. Vertex stage slots map to binding points 0..pixelBlockBase-1.
const pixelBlockBase = 4

func blockBinding(stage gpu.Stage, slot int) uint32 {
	if stage == gpu.StagePixel {
		return uint32(pixelBlockBase + slot)
	}
	return uint32(slot)
}

type program struct {
	id       uint32
	name     string
	layout   gpu.InputLayout
	released bool
}

func (p *program) Name() string { return p.name }

func (p *program) Release() {
	if p.released {
		return
	}
	gl.DeleteProgram(p.id)
	p.released = true
}

// CompileProgram compiles vertex and fragment shaders and links them into a program.
func CompileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vertShader, err := compileShader(vertexSrc, gl.VERTEX_SHADER, "vertex")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vertShader)

	fragShader, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER, "fragment")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fragShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertShader)
	gl.AttachShader(program, fragShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetProgramInfoLog(program, logLen, nil, &log[0])
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link: %s", strings.TrimRight(string(log), "\x00"))
	}

	return program, nil
}

func compileShader(source string, shaderType uint32, name string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen+1)
		gl.GetShaderInfoLog(shader, logLen, nil, &log[0])
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%s shader: %s", name, strings.TrimRight(string(log), "\x00"))
	}

	return shader, nil
}

// CreateProgram links src and assigns its constant blocks and samplers to
// their binding points. Vertex attributes use the layout(location) of the
// element index.
func (d *Device) CreateProgram(src gpu.ShaderSource) (gpu.Program, error) {
	id, err := CompileProgram(src.Vertex, src.Pixel)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", gpu.ErrShaderCompile, src.Name, err)
	}

	for _, b := range src.Blocks {
		idx := gl.GetUniformBlockIndex(id, gl.Str(b.Name+"\x00"))
		if idx == gl.INVALID_INDEX {
			d.log.Debug("constant block not active", zap.String("program", src.Name), zap.String("block", b.Name))
			continue
		}
		gl.UniformBlockBinding(id, idx, blockBinding(b.Stage, b.Slot))
	}

	gl.UseProgram(id)
	for _, t := range src.Textures {
		loc := gl.GetUniformLocation(id, gl.Str(t.Name+"\x00"))
		if loc < 0 {
			d.log.Debug("sampler not active", zap.String("program", src.Name), zap.String("sampler", t.Name))
			continue
		}
		gl.Uniform1i(loc, int32(t.Slot))
	}
	gl.UseProgram(0)

	return &program{id: id, name: src.Name, layout: src.Layout}, nil
}
