package main_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestRegistryAPI(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "RegistryAPI Suite")
}
