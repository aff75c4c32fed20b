package domain

import "time"

// LineKind distinguishes data lines from out-of-band source notifications
type LineKind uint8

const (
	LineData LineKind = iota
	LineEOF
	LineError
)

// Line is one raw line tagged with the source that produced it
type Line struct {
	Source  string
	Kind    LineKind
	Text    string
	Err     error     // set when Kind == LineError
	Arrived time.Time // wall clock at enqueue, zero means "stamp on drain"
}

// SourceKind identifies the family of a line source
type SourceKind string

const (
	SourceFile    SourceKind = "file"
	SourceStdin   SourceKind = "stdin"
	SourceDocker  SourceKind = "docker"
	SourceSSH     SourceKind = "ssh"
	SourceK8s     SourceKind = "k8s"
	SourceCompose SourceKind = "compose"
)
