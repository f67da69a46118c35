// Package builtin holds the providers relayd ships with. They answer over
// the same control channels as any loaded plugin and double as the smoke
// surface for the whole engine.
//
// Framing delivers a heredoc request as its body alone, so multi-line
// commands carry their own structure inside the body. The params provider
// uses the first body line as the parameter name and the rest as the value:
//
//	param.set << EOF
//	motd
//	first line of value
//	second line of value
//	EOF
package builtin
