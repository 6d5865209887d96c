package service

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"minimusiker_backend/internal/audio/pipeline"
	"minimusiker_backend/internal/shared/choir"
	"minimusiker_backend/platform/apperr"
)

// fileSpec is a validated description of one artifact.
type fileSpec struct {
	Type        pipeline.FileType
	Target      choir.Target
	IsSchulsong bool
	Format      string
}

func newFileSpec(fileType, rawTarget string, isSchulsong bool, format string) (fileSpec, error) {
	fs := fileSpec{
		Type:        pipeline.FileType(fileType),
		IsSchulsong: isSchulsong,
		Format:      strings.ToLower(strings.TrimSpace(format)),
	}
	if !fs.Type.Valid() {
		return fileSpec{}, apperr.Validation(fmt.Sprintf("unknown audio file type %q", fileType))
	}
	if fs.Format == "" || strings.ContainsAny(fs.Format, "/.") {
		return fileSpec{}, apperr.Validation("invalid file format")
	}

	switch fs.Type {
	case pipeline.TypeLogicProjectSchulsong, pipeline.TypeLogicProjectMinimusiker:
		if strings.TrimSpace(rawTarget) != "" {
			return fileSpec{}, apperr.Validation("logic projects belong to the whole event")
		}
		fs.IsSchulsong = fs.Type == pipeline.TypeLogicProjectSchulsong
		return fs, nil
	}

	if isSchulsong {
		if strings.TrimSpace(rawTarget) != "" {
			return fileSpec{}, apperr.Validation("schulsong files have no class or group")
		}
		return fs, nil
	}
	target, err := choir.Parse(rawTarget)
	if err != nil {
		return fileSpec{}, err
	}
	fs.Target = target
	return fs, nil
}

// deterministic reports whether the file spec maps to exactly one storage key, so
// that re-uploads replace the previous binary.
func (f fileSpec) deterministic() bool {
	return f.Type != pipeline.TypeRaw
}

// owner is the path segment naming what the file belongs to.
func (f fileSpec) owner() string {
	switch {
	case f.Type == pipeline.TypeLogicProjectSchulsong || f.Type == pipeline.TypeLogicProjectMinimusiker:
		return "logic"
	case f.IsSchulsong:
		return "schulsong"
	default:
		return string(f.Target.Kind) + "-" + f.Target.ID.String()
	}
}

// prefix is the directory every key of this file spec lives in.
func (f fileSpec) prefix(eventID string) string {
	if f.owner() == "logic" {
		return fmt.Sprintf("events/%s/logic/", eventID)
	}
	return fmt.Sprintf("events/%s/%s/%s/", eventID, f.owner(), f.Type)
}

// key builds the storage key. Preview, final and logic files get a fixed
// name; raw takes are unique per upload.
func (f fileSpec) key(eventID string) string {
	if f.deterministic() {
		name := f.owner()
		if name == "logic" {
			name = string(f.Type)
		}
		return f.prefix(eventID) + name + "." + f.Format
	}
	return f.prefix(eventID) + uuid.NewString() + "." + f.Format
}

// owns reports whether key could have been issued for this file spec.
func (f fileSpec) owns(eventID, key string) bool {
	if f.deterministic() {
		return key == f.key(eventID)
	}
	rest, ok := strings.CutPrefix(key, f.prefix(eventID))
	if !ok {
		return false
	}
	name, ok := strings.CutSuffix(rest, "."+f.Format)
	if !ok {
		return false
	}
	_, err := uuid.Parse(name)
	return err == nil
}
