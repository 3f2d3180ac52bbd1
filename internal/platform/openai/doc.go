// Package openai implements the generation.Generator interface against an
// OpenAI-protocol endpoint serving an image-capable model.
package openai
