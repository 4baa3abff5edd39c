// Package models defines the records the authentication server persists.
package models
