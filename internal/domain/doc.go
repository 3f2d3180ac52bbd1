// Package domain contains the core entities of the avatar generation
// service and the validation rules that keep them consistent.
package domain
