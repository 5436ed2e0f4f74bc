// Package testsupport builds temp-directory configurations and zip
// fixtures shared by package tests.
package testsupport
