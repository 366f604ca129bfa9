// Package repl provides the interactive shell of goldtodo-cli.
//
// Each line is split into words, honoring single and double quotes, and
// handed to an Executor, so the shell accepts exactly the commands the CLI
// does:
//
//	goldtodo> todo add "Buy milk"
//	goldtodo> todo ?
//	todo add  todo delete  todo get  ...
//
// A trailing "?" lists completions, "history" prints earlier lines and
// "exit" or "quit" (or end of input) leaves the shell. History is kept in
// a file between sessions.
package repl
