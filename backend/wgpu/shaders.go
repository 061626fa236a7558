//go:build !nogpu

package wgpu

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/compositor"
)

//go:embed shaders/compositor.wgsl
var compositorShaderSource string

// Entry points of the compositor shader module.
const (
	vertexEntry = "vs_main"
)

var fragmentEntries = [...]string{
	compositor.ShaderSolid:         "fs_solid",
	compositor.ShaderTexture:       "fs_texture",
	compositor.ShaderMask:          "fs_mask",
	compositor.ShaderBlur:          "fs_blur",
	compositor.ShaderAdvancedBlend: "fs_advanced",
}

// fragmentEntry returns the entry point of s, or false when the device has
// no program for it.
func fragmentEntry(s compositor.Shader) (string, bool) {
	if int(s) >= len(fragmentEntries) || fragmentEntries[s] == "" {
		return "", false
	}
	return fragmentEntries[s], true
}

var (
	spirvOnce  sync.Once
	spirvWords []uint32
	spirvErr   error
)

// compiledShader returns the compositor module as SPIR-V words. The module
// is compiled once per process.
func compiledShader() ([]uint32, error) {
	spirvOnce.Do(func() {
		var b []byte
		b, spirvErr = naga.Compile(compositorShaderSource)
		if spirvErr != nil {
			spirvErr = fmt.Errorf("wgpu: compile compositor shader: %w", spirvErr)
			return
		}
		spirvWords, spirvErr = spirvToWords(b)
	})
	return spirvWords, spirvErr
}

func spirvToWords(b []byte) ([]uint32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("wgpu: SPIR-V length %d is not a multiple of 4", len(b))
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return words, nil
}

// shaderSource carries the WGSL source and, when naga compiles it, the
// SPIR-V words. Backends translate WGSL themselves, so a compile failure
// only loses the early validation.
func shaderSource(log *slog.Logger) hal.ShaderSource {
	words, err := compiledShader()
	if err != nil {
		log.Warn("wgpu: shader precompile failed, passing WGSL only", "err", err)
		return hal.ShaderSource{WGSL: compositorShaderSource}
	}
	return hal.ShaderSource{WGSL: compositorShaderSource, SPIRV: words}
}
