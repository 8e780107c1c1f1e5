package errors

import "fmt"

// Manifest structure errors. Messages always name the file, and the field when one applies.

func MissingSection(file, section string) *WorkspaceError {
	return New(CategorySection, SeverityFatal, fmt.Sprintf("no [%s] section in %s", section, file)).
		WithContext(ContextFile, file).
		WithContext(ContextField, section)
}

func MissingField(file, field string) *WorkspaceError {
	return New(CategoryField, SeverityFatal, fmt.Sprintf("no %s in %s", field, file)).
		WithContext(ContextFile, file).
		WithContext(ContextField, field)
}

func SchemaMismatch(file, field, reason string) *WorkspaceError {
	return New(CategorySchema, SeverityFatal, fmt.Sprintf("%s in %s %s", field, file, reason)).
		WithContext(ContextFile, file).
		WithContext(ContextField, field)
}

func ParseFailed(file string, cause error) *WorkspaceError {
	return Wrap(cause, CategorySchema, SeverityFatal, fmt.Sprintf("can't parse %s", file)).
		WithContext(ContextFile, file)
}

// IO errors

func ReadFailed(file string, cause error) *WorkspaceError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, fmt.Sprintf("can't read %s", file)).
		WithContext(ContextFile, file)
}

func WriteFailed(file string, cause error) *WorkspaceError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, fmt.Sprintf("can't write %s", file)).
		WithContext(ContextFile, file)
}

// AggregateMismatch reports a verify pass that found fields differing from the target.
func AggregateMismatch(count int) *WorkspaceError {
	return New(CategoryMismatch, SeverityError, fmt.Sprintf("there were differences (%d version field%s)", count, plural(count))).
		WithContext(ContextCount, count)
}

// Input and configuration errors

func InvalidArgument(message string) *WorkspaceError {
	return New(CategoryValidation, SeverityFatal, message)
}

func ConfigInvalid(path, reason string) *WorkspaceError {
	return New(CategoryConfig, SeverityFatal, fmt.Sprintf("invalid configuration %s: %s", path, reason)).
		WithContext(ContextFile, path)
}

func ConfigUnreadable(path string, cause error) *WorkspaceError {
	return Wrap(cause, CategoryConfig, SeverityFatal, fmt.Sprintf("can't load configuration %s", path)).
		WithContext(ContextFile, path)
}

// Git errors

func GitError(operation string, cause error) *WorkspaceError {
	return Wrap(cause, CategoryGit, SeverityFatal, fmt.Sprintf("git %s failed", operation)).
		WithContext("operation", operation)
}

func DirtyWorktree(files []string) *WorkspaceError {
	return New(CategoryGit, SeverityFatal, fmt.Sprintf("refusing to update: uncommitted changes in %v", files)).
		WithContext("files", files)
}

func InternalError(message string, cause error) *WorkspaceError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
