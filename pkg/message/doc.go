// Package message defines roles and the concrete role-tagged messages that
// chat templates resolve to, plus conversions to and from langchaingo's
// llms message types.
package message
