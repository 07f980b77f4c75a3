package validator

import (
	"testing"

	"github.com/cristianortiz/auctionhouse/internal/shared/apperr"
	"github.com/stretchr/testify/suite"
)

type ValidatorTestSuite struct {
	suite.Suite
	v *Validator
}

type request struct {
	BidderID string `json:"bidderId" validate:"required,uuid"`
	Action   string `json:"action" validate:"required,oneof=accept reject"`
	Note     string `json:"note,omitempty" validate:"max=5"`
}

func (s *ValidatorTestSuite) SetupTest() {
	s.v = New()
}

func (s *ValidatorTestSuite) TestStruct() {
	tests := []struct {
		desc    string
		req     request
		wantErr string
	}{
		{
			desc: "valid request",
			req:  request{BidderID: "2f6b8a3e-6c0d-4a43-9d5c-5d0c6c9b7a11", Action: "accept"},
		},
		{
			desc:    "missing bidder",
			req:     request{Action: "accept"},
			wantErr: "bidderId is required",
		},
		{
			desc:    "bad uuid and action",
			req:     request{BidderID: "nope", Action: "maybe"},
			wantErr: "bidderId must be a valid UUID; action must be one of [accept reject]",
		},
		{
			desc:    "note too long",
			req:     request{BidderID: "2f6b8a3e-6c0d-4a43-9d5c-5d0c6c9b7a11", Action: "reject", Note: "too long"},
			wantErr: "note must be at most 5 characters",
		},
	}
	for _, t := range tests {
		err := s.v.Struct(t.req)
		if t.wantErr == "" {
			s.NoError(err, t.desc)
			continue
		}
		r, ok := apperr.As(err)
		s.Require().True(ok, t.desc)
		s.Equal(apperr.CodeValidation, r.Code, t.desc)
		s.Equal(t.wantErr, r.Message, t.desc)
	}
}

func TestValidatorTestSuite(t *testing.T) {
	suite.Run(t, new(ValidatorTestSuite))
}
