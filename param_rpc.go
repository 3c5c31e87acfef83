// param_rpc.go - parameter RPC shared memory (spec §6.7, §5)
//
// Grounded on coprocessor_manager.go's ticket-based shadow-register
// pattern: a request is read when its id differs from the last-seen id,
// and the response-ready flag is published only after every other
// response field has been written, matching that file's dispatchCmd/
// cmdPoll ordering discipline.

package main

import (
	"errors"
	"sync"
)

const (
	rpcRequestIdle = 0
	rpcRequestSet  = 1
	rpcRequestGet  = 2
)

// RPC error codes (spec §6.7).
const (
	rpcErrNone            = 0
	rpcErrInvalidSlot      = 1
	rpcErrNoPlugin         = 2
	rpcErrSetParamMissing  = 3
	rpcErrGetParamMissing  = 4
	rpcErrGetParamMissing2 = 5
	rpcErrUnknownRequest   = 6
)

// ParamRPCSlot is the one-per-process request/response shared-memory
// struct of spec §6.7, modeled here as a plain Go struct guarded by a
// mutex rather than raw shared memory, since this process hosts both
// sides (the audio/param thread and the RPC servicing thread) in-process.
type ParamRPCSlot struct {
	mu sync.Mutex

	RequestID   uint32
	ResponseID  uint32
	RequestType uint8
	Slot        int8
	Key         string
	Value       string

	ResponseReady bool
	ResultLen     int16
	Error         uint8

	lastServicedID uint32
}

// Submit posts a new request; the servicing side picks it up on its next
// poll because RequestID now differs from lastServicedID.
func (r *ParamRPCSlot) Submit(reqID uint32, reqType uint8, slot int8, key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.RequestID = reqID
	r.RequestType = reqType
	r.Slot = slot
	r.Key = key
	r.Value = value
	r.ResponseReady = false
}

// Service drains a pending request (if any) against engine e and
// publishes the response, writing ResponseReady last (spec §8: "a
// response-ready flag always publishes after its payload").
func (r *ParamRPCSlot) Service(e *Engine) {
	r.mu.Lock()
	if r.RequestID == r.lastServicedID {
		r.mu.Unlock()
		return
	}
	reqID := r.RequestID
	reqType := r.RequestType
	slot := r.Slot
	key := r.Key
	value := r.Value
	r.mu.Unlock()

	var resultVal string
	var errCode uint8

	if slot < 0 || int(slot) >= numSlots {
		errCode = rpcErrInvalidSlot
	} else {
		switch reqType {
		case rpcRequestSet:
			if _, err := e.HandleSlotParam(int(slot), key, value); err != nil {
				errCode = classifyRPCError(err)
			}
		case rpcRequestGet:
			v, err := e.GetSlotParam(int(slot), key)
			if err != nil {
				errCode = classifyRPCError(err)
			}
			resultVal = v
		default:
			errCode = rpcErrUnknownRequest
		}
	}

	r.mu.Lock()
	r.Value = resultVal
	r.ResultLen = int16(len(resultVal))
	r.Error = errCode
	r.ResponseID = reqID
	r.lastServicedID = reqID
	r.ResponseReady = true
	r.mu.Unlock()
}

func classifyRPCError(err error) uint8 {
	switch {
	case isErr(err, ErrNoSuchSlot):
		return rpcErrInvalidSlot
	case isErr(err, ErrNoLivePlugin):
		return rpcErrNoPlugin
	case isErr(err, ErrNoSetParam):
		return rpcErrSetParamMissing
	case isErr(err, ErrNoGetParam):
		return rpcErrGetParamMissing
	case isErr(err, ErrUnknownRequest):
		return rpcErrUnknownRequest
	default:
		return rpcErrUnknownRequest
	}
}

func isErr(err, target error) bool { return err != nil && errors.Is(err, target) }
