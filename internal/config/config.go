package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	FileName = "jvlmtest.toml"
	EnvFile  = ".env"

	EnvRoot           = "JVLMTEST_ROOT"
	EnvClang          = "JVLMTEST_CLANG"
	EnvCargo          = "JVLMTEST_CARGO"
	EnvCodegenBackend = "JVLMTEST_CODEGEN_BACKEND"
	EnvJshell         = "JVLMTEST_JSHELL"
	EnvJavap          = "JVLMTEST_JAVAP"
)

var ErrInvalid = errors.New("invalid config")

// Config is the resolved tool and layout configuration for one run.
type Config struct {
	// TestRoot holds one subdirectory per language id.
	TestRoot string
	// ProjectRoot is the working directory of the packager.
	ProjectRoot    string
	OutDir         string
	CompileTimeout time.Duration

	C        CConfig
	Rust     RustConfig
	Packager ToolConfig
	REPL     REPLConfig
	Javap    ToolConfig
}

type CConfig struct {
	Compiler string
	Flags    []string
}

type RustConfig struct {
	Cargo          string
	CodegenBackend string
	// Artifact is the archive path template relative to the test directory.
	// {name} expands to the test's directory name.
	Artifact string
}

// ToolConfig is a command with leading arguments. Placeholders in Args are
// expanded by the caller.
type ToolConfig struct {
	Command string
	Args    []string
}

// REPLConfig drives the JVM statement evaluator. {artifact} in Args and
// {expr} in Input are expanded per check.
type REPLConfig struct {
	Command string
	Args    []string
	Input   string
	Timeout time.Duration
}

type fileConfig struct {
	OutDir         string `toml:"out_dir"`
	ProjectRoot    string `toml:"project_root"`
	CompileTimeout string `toml:"compile_timeout"`
	C              struct {
		Compiler string   `toml:"compiler"`
		Flags    []string `toml:"flags"`
	} `toml:"c"`
	Rust struct {
		Cargo          string `toml:"cargo"`
		CodegenBackend string `toml:"codegen_backend"`
		Artifact       string `toml:"artifact"`
	} `toml:"rust"`
	Packager struct {
		Command string   `toml:"command"`
		Args    []string `toml:"args"`
	} `toml:"packager"`
	REPL struct {
		Command string   `toml:"command"`
		Args    []string `toml:"args"`
		Input   string   `toml:"input"`
		Timeout string   `toml:"timeout"`
	} `toml:"repl"`
	Javap struct {
		Command string   `toml:"command"`
		Args    []string `toml:"args"`
	} `toml:"javap"`
}

// Default returns the configuration used when no file overrides it.
func Default(testRoot string) Config {
	projectRoot := filepath.Dir(testRoot)
	return Config{
		TestRoot:       testRoot,
		ProjectRoot:    projectRoot,
		OutDir:         filepath.Join(testRoot, "out"),
		CompileTimeout: 10 * time.Minute,
		C: CConfig{
			Compiler: "clang",
			Flags:    []string{"-O3"},
		},
		Rust: RustConfig{
			Cargo:          "cargo",
			CodegenBackend: filepath.Join(projectRoot, "target", "debug", "librustc_codegen_jvlm.so"),
			Artifact:       "target/release/{name}.jar",
		},
		Packager: ToolConfig{
			Command: "cargo",
			Args:    []string{"run", "--quiet", "--", "{input}", "{output}"},
		},
		REPL: REPLConfig{
			Command: "jshell",
			Args:    []string{"--class-path", "{artifact}", "--feedback", "silent", "-q", "-"},
			Input:   "System.out.println({expr});\n/exit\n",
			Timeout: time.Minute,
		},
		Javap: ToolConfig{
			Command: "javap",
			Args:    []string{"-c", "-p"},
		},
	}
}

// Load resolves the configuration for testRoot: defaults, then
// testRoot/jvlmtest.toml, then testRoot/.env and environment overrides.
func Load(testRoot string) (Config, error) {
	root, err := filepath.Abs(testRoot)
	if err != nil {
		return Config{}, fmt.Errorf("config root %s: %w", testRoot, err)
	}
	cfg := Default(root)

	path := filepath.Join(root, FileName)
	if _, err := os.Stat(path); err == nil {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}

	envPath := filepath.Join(root, EnvFile)
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return Config{}, fmt.Errorf("env load failed (%s): %w", envPath, err)
		}
	}
	applyEnvOverrides(&cfg)

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("%w: unknown key %q in %s", ErrInvalid, undecoded[0].String(), path)
	}

	if meta.IsDefined("out_dir") {
		cfg.OutDir = resolvePath(cfg.TestRoot, raw.OutDir)
	}
	if meta.IsDefined("project_root") {
		cfg.ProjectRoot = resolvePath(cfg.TestRoot, raw.ProjectRoot)
	}
	if meta.IsDefined("compile_timeout") {
		d, err := parseDuration("compile_timeout", raw.CompileTimeout)
		if err != nil {
			return err
		}
		cfg.CompileTimeout = d
	}

	if meta.IsDefined("c", "compiler") {
		cfg.C.Compiler = strings.TrimSpace(raw.C.Compiler)
	}
	if meta.IsDefined("c", "flags") {
		cfg.C.Flags = raw.C.Flags
	}

	if meta.IsDefined("rust", "cargo") {
		cfg.Rust.Cargo = strings.TrimSpace(raw.Rust.Cargo)
	}
	if meta.IsDefined("rust", "codegen_backend") {
		cfg.Rust.CodegenBackend = resolvePath(cfg.TestRoot, raw.Rust.CodegenBackend)
	}
	if meta.IsDefined("rust", "artifact") {
		cfg.Rust.Artifact = strings.TrimSpace(raw.Rust.Artifact)
	}

	if meta.IsDefined("packager", "command") {
		cfg.Packager.Command = strings.TrimSpace(raw.Packager.Command)
	}
	if meta.IsDefined("packager", "args") {
		cfg.Packager.Args = raw.Packager.Args
	}

	if meta.IsDefined("repl", "command") {
		cfg.REPL.Command = strings.TrimSpace(raw.REPL.Command)
	}
	if meta.IsDefined("repl", "args") {
		cfg.REPL.Args = raw.REPL.Args
	}
	if meta.IsDefined("repl", "input") {
		cfg.REPL.Input = raw.REPL.Input
	}
	if meta.IsDefined("repl", "timeout") {
		d, err := parseDuration("repl.timeout", raw.REPL.Timeout)
		if err != nil {
			return err
		}
		cfg.REPL.Timeout = d
	}

	if meta.IsDefined("javap", "command") {
		cfg.Javap.Command = strings.TrimSpace(raw.Javap.Command)
	}
	if meta.IsDefined("javap", "args") {
		cfg.Javap.Args = raw.Javap.Args
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvClang)); v != "" {
		cfg.C.Compiler = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCargo)); v != "" {
		cfg.Rust.Cargo = v
		cfg.Packager.Command = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCodegenBackend)); v != "" {
		cfg.Rust.CodegenBackend = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvJshell)); v != "" {
		cfg.REPL.Command = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvJavap)); v != "" {
		cfg.Javap.Command = v
	}
}

// Validate checks that every tool is named and every limit is usable.
func Validate(cfg Config) error {
	required := []struct {
		key   string
		value string
	}{
		{"c.compiler", cfg.C.Compiler},
		{"rust.cargo", cfg.Rust.Cargo},
		{"rust.artifact", cfg.Rust.Artifact},
		{"packager.command", cfg.Packager.Command},
		{"repl.command", cfg.REPL.Command},
		{"javap.command", cfg.Javap.Command},
		{"out_dir", cfg.OutDir},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalid, r.key)
		}
	}
	if cfg.CompileTimeout < 0 {
		return fmt.Errorf("%w: compile_timeout must not be negative", ErrInvalid)
	}
	if cfg.REPL.Timeout < 0 {
		return fmt.Errorf("%w: repl.timeout must not be negative", ErrInvalid)
	}
	if !strings.Contains(cfg.REPL.Input, "{expr}") {
		return fmt.Errorf("%w: repl.input must contain {expr}", ErrInvalid)
	}
	return nil
}

// FindTestRoot walks up from dir looking for a directory holding FileName,
// either directly or in a test/ child. Without a config file anywhere above
// dir, the nearest such directory holding one of the languages
// subdirectories is used instead. JVLMTEST_ROOT wins when set.
func FindTestRoot(dir string, languages ...string) string {
	if v := strings.TrimSpace(os.Getenv(EnvRoot)); v != "" {
		return v
	}
	if root, ok := walkUp(dir, func(candidate string) bool {
		return exists(filepath.Join(candidate, FileName), false)
	}); ok {
		return root
	}
	if root, ok := walkUp(dir, func(candidate string) bool {
		for _, name := range languages {
			if exists(filepath.Join(candidate, name), true) {
				return true
			}
		}
		return false
	}); ok {
		return root
	}
	return dir
}

// walkUp returns the first of dir, dir/test, parent, parent/test ... that
// satisfies match.
func walkUp(dir string, match func(string) bool) (string, bool) {
	for cur := dir; ; {
		for _, candidate := range []string{cur, filepath.Join(cur, "test")} {
			if match(candidate) {
				return candidate, true
			}
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", false
		}
		cur = parent
	}
}

func exists(p string, wantDir bool) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir() == wantDir
}

func parseDuration(key, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: parse %s: %v", ErrInvalid, key, err)
	}
	return d, nil
}

func resolvePath(root, p string) string {
	p = strings.TrimSpace(p)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
