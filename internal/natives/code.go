package natives

import (
	"errors"

	"github.com/valekar/aptos-core/types"
)

// Abort codes raised by the code natives.
const (
	AbortDuplicateModule  uint64 = 0x1_0001
	AbortInvalidPolicy    uint64 = 0x1_0002
	AbortAlreadyRequested uint64 = 0x3_0003
)

var (
	ErrAlreadyRequested = errors.New("publish already requested for another account or policy")
	ErrDuplicateModule  = errors.New("module already in publish request")
	ErrInvalidPolicy    = errors.New("invalid upgrade policy")
)

// CodeContext collects the code a session asks to publish. Publishing
// happens when the change set is committed, not during execution.
type CodeContext struct {
	request *types.PublishRequest
}

// NewCodeContext returns a capability with no pending request.
func NewCodeContext() *CodeContext {
	return &CodeContext{}
}

// RequestPublish adds module to the pending request. All modules of a
// session must target the same account with the same policy.
func (c *CodeContext) RequestPublish(owner types.AccountAddress, module types.Module, policy types.UpgradePolicy) error {
	if !policy.Valid() {
		return ErrInvalidPolicy
	}
	if c.request == nil {
		c.request = &types.PublishRequest{Destination: owner, Policy: policy}
	} else if c.request.Destination != owner || c.request.Policy != policy {
		return ErrAlreadyRequested
	}
	for _, m := range c.request.Modules {
		if m.Name == module.Name {
			return ErrDuplicateModule
		}
	}
	c.request.Modules = append(c.request.Modules, types.Module{
		Name: module.Name,
		Code: append([]byte(nil), module.Code...),
	})
	return nil
}

// PendingRequest returns the request without taking it.
func (c *CodeContext) PendingRequest() *types.PublishRequest {
	return c.request
}

// ExtractPublishRequest takes the pending request, leaving none behind.
func (c *CodeContext) ExtractPublishRequest() *types.PublishRequest {
	req := c.request
	c.request = nil
	return req
}
