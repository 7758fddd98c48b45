// Package language normalizes the language codes carried on jobs and step
// documents.
//
// Job submitters hand us anything from "ja" to "Japanese" to BCP 47 tags
// like "en-US"; all of it is reduced to an ISO 639-1 base code here so the
// transcription and step generation providers see one canonical form.
package language
