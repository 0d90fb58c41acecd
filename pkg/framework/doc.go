// Package framework provides the process plumbing shared by the commands:
// background runnables, signal handling and error aggregation.
package framework
