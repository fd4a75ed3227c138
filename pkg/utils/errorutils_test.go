package utils

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
)

var errKind = errors.New("kind")

type ErrorUtilsSuite struct {
	suite.Suite
}

func TestErrorUtilsSuite(t *testing.T) {
	suite.Run(t, new(ErrorUtilsSuite))
}

func (s *ErrorUtilsSuite) TestWrapIfNotNilNil() {
	s.NoError(WrapIfNotNil(nil, "ctx"))
}

func (s *ErrorUtilsSuite) TestWrapIfNotNilPrefixesCaller() {
	cause := errors.New("boom")
	err := WrapIfNotNil(cause, "opening clip")

	s.Require().Error(err)
	s.ErrorIs(err, cause)
	s.Contains(err.Error(), "TestWrapIfNotNilPrefixesCaller")
	s.Contains(err.Error(), "opening clip")
}

func (s *ErrorUtilsSuite) TestWrapWithKindKeepsKindAndCause() {
	cause := errors.New("status 429")
	err := WrapWithKind(errKind, cause)

	s.ErrorIs(err, errKind)
	s.ErrorIs(err, cause)
	s.Contains(err.Error(), "TestWrapWithKindKeepsKindAndCause")
}

func (s *ErrorUtilsSuite) TestWrapWithKindDoesNotRepeatKind() {
	err := WrapWithKind(errKind, WrapWithKind(errKind, errors.New("x")))

	s.ErrorIs(err, errKind)
	s.Equal(1, strings.Count(err.Error(), "kind"))
}

func (s *ErrorUtilsSuite) TestWrapWithKindNil() {
	s.NoError(WrapWithKind(errKind, nil))
}

func (s *ErrorUtilsSuite) TestContainsErrorSubstringWalksChain() {
	err := WrapIfNotNil(WrapIfNotNil(errors.New("rate limited")))
	s.True(ContainsErrorSubstring(err, "rate limited"))
	s.False(ContainsErrorSubstring(err, "timeout"))
}
