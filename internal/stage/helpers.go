package stage

import (
	"os"
	"strings"

	"musica/internal/queue"
	"musica/internal/services"
)

// ValidateFileRef checks that a job carries a usable payload and that its
// source file is readable. On failure it returns a services.ErrValidation
// suitable for stage Prepare methods.
func ValidateFileRef(stageName string, job *queue.Job) error {
	if job == nil {
		return services.Wrap(services.ErrValidation, stageName, "validate job", "job is nil", nil)
	}
	ref := job.Payload
	if strings.TrimSpace(ref.FileName) == "" {
		return services.Wrap(services.ErrValidation, stageName, "validate job", "file_name is empty", nil)
	}
	if strings.TrimSpace(ref.FilePath) == "" {
		return services.Wrap(services.ErrValidation, stageName, "validate job", "file_path is empty", nil)
	}
	info, err := os.Stat(ref.FilePath)
	if err != nil {
		return services.Wrap(services.ErrValidation, stageName, "validate job", "source file is not readable", err)
	}
	if info.IsDir() {
		return services.Wrap(services.ErrValidation, stageName, "validate job", "source path is a directory", nil)
	}
	return nil
}
