// Package argsnorm implements the Compile-Argument Normalizer (C3):
// tokenizing, stripping, absolutizing, and sanitizing per-file compiler
// argument vectors from a compile_commands.json-style database.
package argsnorm

import (
	"path/filepath"
	"runtime"
	"strings"
)

// Entry is one raw compile-commands database entry.
type Entry struct {
	Directory string
	File      string
	Command   string   // shell-quoted command form
	Arguments []string // pre-tokenized argument-list form
}

// Options controls normalization behavior beyond the rule table.
type Options struct {
	// ResourceDir is the Clang-intrinsic header directory discovered at
	// startup (empty if undiscoverable, in which case builtin-header
	// injection is skipped).
	ResourceDir string
}

// Tokenize splits a shell command string into arguments honoring single and
// double quotes.
func Tokenize(command string) []string {
	var args []string
	var cur strings.Builder
	inSingle, inDouble := false, false
	hasCur := false

	flush := func() {
		if hasCur {
			args = append(args, cur.String())
			cur.Reset()
			hasCur = false
		}
	}

	for i := 0; i < len(command); i++ {
		c := command[i]
		switch {
		case inSingle:
			if c == '\'' {
				inSingle = false
			} else {
				cur.WriteByte(c)
				hasCur = true
			}
		case inDouble:
			if c == '"' {
				inDouble = false
			} else if c == '\\' && i+1 < len(command) && (command[i+1] == '"' || command[i+1] == '\\') {
				i++
				cur.WriteByte(command[i])
				hasCur = true
			} else {
				cur.WriteByte(c)
				hasCur = true
			}
		case c == '\'':
			inSingle = true
			hasCur = true
		case c == '"':
			inDouble = true
			hasCur = true
		case c == ' ' || c == '\t' || c == '\n':
			flush()
		case c == '\\' && i+1 < len(command):
			i++
			cur.WriteByte(command[i])
			hasCur = true
		default:
			cur.WriteByte(c)
			hasCur = true
		}
	}
	flush()
	return args
}

// rawArgs returns the entry's argument list, tokenizing Command when
// Arguments is absent.
func (e Entry) rawArgs() []string {
	if len(e.Arguments) > 0 {
		return e.Arguments
	}
	return Tokenize(e.Command)
}

// stripInvocationAndIO removes the leading compiler invocation, output and
// compile-only flags, and the source filename itself.
func stripInvocationAndIO(args []string, sourceFile string) []string {
	if len(args) == 0 {
		return args
	}
	base := filepath.Base(sourceFile)
	out := make([]string, 0, len(args))
	// Skip the compiler invocation itself.
	for i := 1; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-o":
			i++ // also skip its value
		case arg == "-c":
			// drop
		case arg == sourceFile || arg == base || filepath.Base(arg) == base:
			// drop the source filename wherever it appears
		default:
			out = append(out, arg)
		}
	}
	return out
}

var includeFlagPrefixes = []string{"-I", "-isystem"}

// absolutizeIncludes rewrites -I<rel>, -I <rel>, and -isystem <rel> into
// absolute paths rooted at dir.
func absolutizeIncludes(args []string, dir string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-I" || arg == "-isystem":
			out = append(out, arg)
			if i+1 < len(args) {
				out = append(out, absPath(args[i+1], dir))
				i++
			}
		case strings.HasPrefix(arg, "-I") && len(arg) > 2:
			out = append(out, "-I"+absPath(arg[2:], dir))
		default:
			out = append(out, arg)
		}
	}
	return out
}

func absPath(p, dir string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(dir, p))
}

// injectBuiltinHeaders appends "-isystem <resourceDir>" exactly once, after
// any language-standard flags.
func injectBuiltinHeaders(args []string, resourceDir string) []string {
	if resourceDir == "" {
		return args
	}
	for i := 0; i < len(args); i++ {
		if args[i] == "-isystem" && i+1 < len(args) && args[i+1] == resourceDir {
			return args // already present
		}
	}
	insertAt := 0
	for i, a := range args {
		if strings.HasPrefix(a, "-std=") {
			insertAt = i + 1
		}
	}
	out := make([]string, 0, len(args)+2)
	out = append(out, args[:insertAt]...)
	out = append(out, "-isystem", resourceDir)
	out = append(out, args[insertAt:]...)
	return out
}

// Normalize runs the full sanitization pipeline over one compile database
// entry and returns the argument vector libclang should receive.
func Normalize(entry Entry, rs *RuleSet, opts Options) []string {
	args := entry.rawArgs()
	args = stripInvocationAndIO(args, entry.File)
	args = absolutizeIncludes(args, entry.Directory)
	if rs != nil {
		args = rs.Sanitize(args)
	}
	args = injectBuiltinHeaders(args, opts.ResourceDir)
	return args
}

// FallbackArgs builds the platform-conditioned default argument set used
// when no compile-commands entry exists for a file and fallback is enabled.
func FallbackArgs(projectRoot string, opts Options) []string {
	args := []string{
		"-std=c++17",
		"-I" + projectRoot,
		"-DNOMINMAX",
	}
	if runtime.GOOS == "windows" {
		args = append(args, windowsSDKSweep(projectRoot)...)
	}
	return injectBuiltinHeaders(args, opts.ResourceDir)
}

// windowsSDKSweep returns the Windows-only additions to the fallback
// vector: two preprocessor defines. It does not locate an installed
// Windows SDK or MSVC toolchain and adds no include paths for them.
func windowsSDKSweep(projectRoot string) []string {
	return []string{
		"-D_CRT_SECURE_NO_WARNINGS",
		"-DWIN32_LEAN_AND_MEAN",
	}
}
