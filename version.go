package pipeline

// Version is the current version of the go-pipeline library
const Version = "1.0.0"
