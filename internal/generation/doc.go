// Package generation defines the boundary between the application core and
// the external image generation capability, and the policy for extracting a
// usable result locator out of its loosely structured responses.
package generation
