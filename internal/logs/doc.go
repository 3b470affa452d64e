// Package logs reads the JSON run log written by the server and one-shot
// commands. It tails the file with bounded memory, follows appended records,
// and narrows output to a single run key or minimum level.
package logs
