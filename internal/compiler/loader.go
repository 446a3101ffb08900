package compiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

// LoadMode controls how errors are handled during loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Load error codes (E001-E099)
const (
	ErrCodeGeneric     = "E001" // generic or unknown error
	ErrCodeScanError   = "E002" // directory scan error
	ErrCodeNoFiles     = "E003" // no CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeCompile     = "E007" // skeleton did not compile
	ErrCodeNoSkeletons = "E008" // no skeleton definitions found
)

// LoadResult contains the skeletons loaded from a directory.
type LoadResult struct {
	Skeletons []*Definition
	CUEValue  cue.Value // raw value for additional processing
	FileCount int
}

// Find returns the named skeleton definition, or nil.
func (r *LoadResult) Find(name string) *Definition {
	for _, d := range r.Skeletons {
		if d.Data.Name == name {
			return d
		}
	}
	return nil
}

// Names lists the loaded skeletons in source order.
func (r *LoadResult) Names() []string {
	names := make([]string, len(r.Skeletons))
	for i, d := range r.Skeletons {
		names[i] = d.Data.Name
	}
	return names
}

// LoadError represents an error that occurred during loading.
type LoadError struct {
	Code     string
	Skeleton string
	Message  string
	Pos      token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Skeleton != "" {
		msg = fmt.Sprintf("skeleton %q: %s", e.Skeleton, e.Message)
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// LoadDir loads, compiles and validates every skeleton definition in dir.
// Validation errors are returned as ValidationError values; the skeleton is
// still not added to the result. If mode is LoadModeFailFast, returns on the
// first error.
func LoadDir(dir string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("skeletons directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing skeletons directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	result := &LoadResult{
		CUEValue:  value,
		FileCount: len(cueFiles),
	}
	var errs []error

	skeletons := value.LookupPath(cue.ParsePath("skeleton"))
	if !skeletons.Exists() {
		return result, []error{&LoadError{Code: ErrCodeNoSkeletons, Message: "no skeleton definitions found"}}
	}
	iter, err := skeletons.Fields()
	if err != nil {
		return result, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating skeletons: %v", err)}}
	}

	for iter.Next() {
		name := iter.Selector().Unquoted()
		def, err := CompileSkeleton(iter.Value())
		if err != nil {
			errs = append(errs, convertCompileError(err, name))
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		if verrs := Validate(def.Data); len(verrs) > 0 {
			for _, ve := range verrs {
				errs = append(errs, &LoadError{Code: ve.Code, Skeleton: name, Message: fmt.Sprintf("%s: %s", ve.Field, ve.Message)})
				if mode == LoadModeFailFast {
					return result, errs
				}
			}
			continue
		}
		result.Skeletons = append(result.Skeletons, def)
	}

	if len(result.Skeletons) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeNoSkeletons, Message: "no skeleton definitions found"})
	}
	return result, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError attaches the skeleton name and position to a compile
// failure.
func convertCompileError(err error, skeleton string) *LoadError {
	var compileErr *CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:     ErrCodeCompile,
			Skeleton: skeleton,
			Message:  fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Pos:      compileErr.Pos,
		}
	}
	return &LoadError{
		Code:     ErrCodeGeneric,
		Skeleton: skeleton,
		Message:  err.Error(),
	}
}
