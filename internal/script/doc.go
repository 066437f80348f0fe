// Package script turns script text into auto.Entry lists.
//
// CSV scripts hold one command per line: the first field is the command name,
// the remaining fields are positional arguments. Any line-ending convention
// is accepted. YAML scripts are a sequence whose items are either a list
// ([name, arg...]) or a single-key map ({name: [args]} or {name: arg}).
package script
