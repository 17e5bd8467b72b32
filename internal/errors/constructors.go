package errors

// Convenience constructors for common error patterns

// Node lifecycle errors

// NodeInitialization wraps a failure during node initialization (processor
// init or sensor creation) with the node's name.
func NodeInitialization(node string, cause error) *StreamError {
	return &StreamError{
		Category: CategoryInitialization,
		Severity: SeverityFatal,
		Node:     node,
		Message:  "failed to initialize processor node " + node,
		Cause:    cause,
	}
}

// NodeShutdown wraps a failure during node close (processor close or sensor
// teardown) with the node's name.
func NodeShutdown(node string, cause error) *StreamError {
	return &StreamError{
		Category: CategoryShutdown,
		Severity: SeverityError,
		Node:     node,
		Message:  "failed to close processor node " + node,
		Cause:    cause,
	}
}

// NotInitialized reports a lifecycle call on a node outside its
// initialized window.
func NotInitialized(node, operation string) *StreamError {
	return New(CategoryLifecycle, SeverityError, "node "+node+" is not initialized").
		WithContext("operation", operation).
		withNode(node)
}

// Topology wiring errors

func DuplicateNode(node string) *StreamError {
	return New(CategoryTopology, SeverityFatal, "node "+node+" already exists in topology").
		withNode(node)
}

func UnknownNode(node string) *StreamError {
	return New(CategoryTopology, SeverityFatal, "node "+node+" not found in topology").
		withNode(node)
}

func TopologyCycle(node string) *StreamError {
	return New(CategoryTopology, SeverityFatal, "topology contains a cycle through node "+node).
		withNode(node)
}

// Config errors

func ConfigNotFound(path string) *StreamError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ValidationFailed(field, reason string) *StreamError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Source errors

func SourceFailed(kind string, cause error) *StreamError {
	return Wrap(cause, CategorySource, SeverityFatal, "record source failed").
		WithContext("kind", kind)
}

// Metrics errors

func DuplicateSensor(name string) *StreamError {
	return New(CategoryMetrics, SeverityFatal, "sensor "+name+" is already registered")
}

func (e *StreamError) withNode(node string) *StreamError {
	e.Node = node
	return e
}
