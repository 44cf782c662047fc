// Copyright (c) 2025 Pano Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at panoptisDev.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package wasm

import (
	"context"
	"fmt"

	"github.com/panoptisDev/strata/go/strata"
	"github.com/tetratelabs/wazero"
)

// Config configures the WebAssembly runtime.
type Config struct {
	// CacheDir is a directory in which natively compiled code is persisted
	// across restarts. Empty keeps compiled code in memory only.
	CacheDir string
}

// module is a compiled WebAssembly module. The compiled code is metered;
// the original bytecode is retained as its serialized form. Recompiling it
// is cheap once the native code is in the runtime's compilation cache.
type module struct {
	hash     strata.Hash
	compiled wazero.CompiledModule
	bytecode []byte
}

func (m *module) Hash() strata.Hash {
	return m.hash
}

// Runtime owns the wazero runtime shared by the compiler and the
// interpreter, including the host module through which contracts access
// the execution context.
type Runtime struct {
	ctx     context.Context
	runtime wazero.Runtime
	cache   wazero.CompilationCache
}

// NewRuntime creates a runtime. Cancelling ctx aborts running calls.
func NewRuntime(ctx context.Context, config Config) (*Runtime, error) {
	var (
		cache wazero.CompilationCache
		err   error
	)
	if config.CacheDir == "" {
		cache = wazero.NewCompilationCache()
	} else if cache, err = wazero.NewCompilationCacheWithDir(config.CacheDir); err != nil {
		return nil, fmt.Errorf("failed to open compilation cache: %w", err)
	}
	runtime := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().
		WithCompilationCache(cache).
		WithCloseOnContextDone(true))
	if err := instantiateHostModule(ctx, runtime); err != nil {
		runtime.Close(ctx)
		return nil, err
	}
	return &Runtime{ctx: ctx, runtime: runtime, cache: cache}, nil
}

func (r *Runtime) Close() error {
	if err := r.runtime.Close(r.ctx); err != nil {
		return err
	}
	return r.cache.Close(r.ctx)
}

// Compiler returns a compiler producing modules for this runtime.
func (r *Runtime) Compiler() *Compiler {
	return &Compiler{runtime: r}
}

// Interpreter returns an interpreter running modules of this runtime.
func (r *Runtime) Interpreter() *Interpreter {
	return &Interpreter{runtime: r}
}

// Compiler implements strata.Compiler for WebAssembly bytecode.
type Compiler struct {
	runtime *Runtime
}

var _ strata.Compiler = (*Compiler)(nil)

func (c *Compiler) Compile(bytecode []byte) (strata.Module, error) {
	return c.compile(strata.Keccak256(bytecode), bytecode)
}

func (c *Compiler) compile(hash strata.Hash, bytecode []byte) (strata.Module, error) {
	metered, err := instrument(bytecode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", strata.ErrInvalidModule, err)
	}
	compiled, err := c.runtime.runtime.CompileModule(c.runtime.ctx, metered)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", strata.ErrInvalidModule, err)
	}
	if len(compiled.ImportedMemories()) > 0 {
		compiled.Close(c.runtime.ctx)
		return nil, fmt.Errorf("%w: memory imports are not supported", strata.ErrInvalidModule)
	}
	for _, imported := range compiled.ImportedFunctions() {
		moduleName, name, _ := imported.Import()
		if moduleName != hostModuleName || !isHostFunction(name) {
			compiled.Close(c.runtime.ctx)
			return nil, fmt.Errorf("%w: unknown import %s.%s", strata.ErrInvalidModule, moduleName, name)
		}
	}
	return &module{hash: hash, compiled: compiled, bytecode: bytecode}, nil
}

func (c *Compiler) Serialize(m strata.Module) ([]byte, error) {
	wasmModule, ok := m.(*module)
	if !ok {
		return nil, fmt.Errorf("unsupported module type %T", m)
	}
	return wasmModule.bytecode, nil
}

func (c *Compiler) Deserialize(hash strata.Hash, data []byte) (strata.Module, error) {
	if got := strata.Keccak256(data); got != hash {
		return nil, fmt.Errorf("module hash mismatch, wanted %v, got %v", hash, got)
	}
	return c.compile(hash, data)
}
