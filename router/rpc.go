package router

import (
	"time"

	"github.com/ohyo-io/wampire/wamp"
)

// handleRegister implements REGISTER (spec.md §4.4).
func (r *realm) handleRegister(sess *Session, msg *wamp.Register) {
	kind := wamp.MatchKindFromOptions(msg.Options)
	id, created, err := r.dealer.register(sess.ID, msg.Procedure, kind, msg.Options, r.config.StrictURI)
	if err != nil {
		sess.Peer.Send(&wamp.Error{Type: wamp.REGISTER, Request: msg.Request, Details: wamp.Dict{}, Error: wamp.URI(err.Error())})
		return
	}
	sess.Peer.Send(&wamp.Registered{Request: msg.Request, Registration: id})
	if created {
		r.emitMetaEvent(wamp.MetaEventRegOnCreate, wamp.List{sess.ID, r.registrationMetaDict(id)})
	}
	r.emitMetaEvent(wamp.MetaEventRegOnRegister, wamp.List{sess.ID, id})
}

// handleUnregister implements UNREGISTER (spec.md §4.4).
func (r *realm) handleUnregister(sess *Session, msg *wamp.Unregister) {
	deleted, err := r.dealer.unregister(sess.ID, msg.Registration)
	if err != nil {
		sess.Peer.Send(&wamp.Error{Type: wamp.UNREGISTER, Request: msg.Request, Details: wamp.Dict{}, Error: wamp.URI(err.Error())})
		return
	}
	sess.Peer.Send(&wamp.Unregistered{Request: msg.Request})
	r.emitMetaEvent(wamp.MetaEventRegOnUnregister, wamp.List{sess.ID, msg.Registration})
	if deleted {
		r.emitMetaEvent(wamp.MetaEventRegOnDelete, wamp.List{sess.ID, msg.Registration})
	}
}

// handleCall implements CALL, routing to either the meta-API or a
// registered callee via INVOCATION (spec.md §4.5, §4.7).
func (r *realm) handleCall(sess *Session, msg *wamp.Call) {
	if wamp.IsMetaURI(msg.Procedure) {
		if r.answerMeta(sess, msg) {
			return
		}
	}

	reg, ok := r.dealer.resolve(msg.Procedure)
	if !ok {
		sess.Peer.Send(&wamp.Error{Type: wamp.CALL, Request: msg.Request, Details: wamp.Dict{}, Error: wamp.ErrNoSuchProcedure})
		return
	}
	calleeID := reg.pickCallee()
	callee, ok := r.sessions[calleeID]
	if !ok {
		sess.Peer.Send(&wamp.Error{Type: wamp.CALL, Request: msg.Request, Details: wamp.Dict{}, Error: wamp.ErrNoSuchProcedure})
		return
	}

	invID := r.dealer.gen.Next()
	inv := &invocation{
		invocationID:    invID,
		callerSession:   sess.ID,
		callerRequest:   msg.Request,
		calleeSession:   calleeID,
		registrationID:  reg.id,
		procedure:       msg.Procedure,
		receiveProgress: wamp.OptionBool(msg.Options, "receive_progress", false),
	}
	r.dealer.pendingCalls[callKey{sess.ID, msg.Request}] = inv
	r.dealer.pendingInvocations[invokeKey{calleeID, invID}] = inv

	details := wamp.Dict{"procedure": string(msg.Procedure)}
	if wamp.OptionBool(msg.Options, "disclose_me", false) && r.config.AllowDisclose {
		details["caller"] = sess.ID
		if authid := sess.AuthID(); authid != "" {
			details["caller_authid"] = authid
		}
	}

	if timeout := wamp.OptionInt64(msg.Options, "timeout"); timeout > 0 {
		inv.timer = time.AfterFunc(time.Duration(timeout)*time.Millisecond, func() {
			select {
			case r.actionChan <- func() { r.timeoutInvocation(inv) }:
			case <-r.closeChan:
			}
		})
	}

	callee.Peer.Send(&wamp.Invocation{
		Request:      invID,
		Registration: reg.id,
		Details:      details,
		Arguments:    msg.Arguments,
		ArgumentsKw:  msg.ArgumentsKw,
	})
}

// timeoutInvocation cancels an invocation whose CALL.Options.timeout
// elapsed, per spec.md §4.5 item 7: timeout behaves like cancel(kill).
func (r *realm) timeoutInvocation(inv *invocation) {
	if inv.answered || inv.cancelled {
		return
	}
	inv.cancelled = true
	inv.cancelMode = wamp.CancelModeKill
	if callee, ok := r.sessions[inv.calleeSession]; ok {
		callee.Peer.Send(&wamp.Interrupt{Request: inv.invocationID, Options: wamp.Dict{"mode": string(wamp.CancelModeKill)}})
	}
}

// handleCancel implements CANCEL (spec.md §4.5 items 6-7). The caller's
// view of the call is resolved immediately for skip/killnowait; kill waits
// for the callee's eventual ERROR/YIELD.
func (r *realm) handleCancel(sess *Session, msg *wamp.Cancel) {
	inv, ok := r.dealer.pendingCalls[callKey{sess.ID, msg.Request}]
	if !ok {
		return
	}
	mode := wamp.CancelMode(wamp.OptionString(msg.Options, "mode"))
	if mode == "" {
		mode = wamp.CancelModeSkip
	}
	inv.cancelled = true
	inv.cancelMode = mode

	callee, hasCallee := r.sessions[inv.calleeSession]
	if hasCallee && mode != wamp.CancelModeKillNoWait {
		callee.Peer.Send(&wamp.Interrupt{Request: inv.invocationID, Options: wamp.Dict{"mode": string(mode)}})
	}

	if mode != wamp.CancelModeKill {
		r.finishInvocation(inv)
		if !inv.answered {
			inv.answered = true
			sess.Peer.Send(&wamp.Error{Type: wamp.CALL, Request: msg.Request, Details: wamp.Dict{}, Error: wamp.ErrCanceled})
		}
	}
}

// handleYield implements YIELD: the callee's successful response to an
// Invocation becomes a RESULT to the original caller (spec.md §4.5). A
// YIELD carrying Options["progress"]=true, against an invocation whose
// CALL requested receive_progress, delivers an intermediate RESULT and
// leaves the invocation open for a later, final YIELD.
func (r *realm) handleYield(sess *Session, msg *wamp.Yield) {
	inv, ok := r.dealer.pendingInvocations[invokeKey{sess.ID, msg.Request}]
	if !ok {
		return
	}
	if inv.answered {
		return
	}

	progress := inv.receiveProgress && wamp.OptionBool(msg.Options, "progress", false)
	if progress {
		if caller, ok := r.sessions[inv.callerSession]; ok {
			caller.Peer.Send(&wamp.Result{
				Request:     inv.callerRequest,
				Details:     wamp.Dict{"progress": true},
				Arguments:   msg.Arguments,
				ArgumentsKw: msg.ArgumentsKw,
			})
		}
		return
	}

	r.finishInvocation(inv)
	inv.answered = true
	if caller, ok := r.sessions[inv.callerSession]; ok {
		caller.Peer.Send(&wamp.Result{Request: inv.callerRequest, Details: wamp.Dict{}, Arguments: msg.Arguments, ArgumentsKw: msg.ArgumentsKw})
	}
}

// handleInvocationError implements ERROR(INVOCATION): the callee's failure
// response becomes an ERROR(CALL) to the original caller.
func (r *realm) handleInvocationError(sess *Session, msg *wamp.Error) {
	inv, ok := r.dealer.pendingInvocations[invokeKey{sess.ID, msg.Request}]
	if !ok {
		return
	}
	r.finishInvocation(inv)
	if inv.answered {
		return
	}
	inv.answered = true
	if caller, ok := r.sessions[inv.callerSession]; ok {
		caller.Peer.Send(&wamp.Error{
			Type:        wamp.CALL,
			Request:     inv.callerRequest,
			Details:     wamp.Dict{},
			Error:       msg.Error,
			Arguments:   msg.Arguments,
			ArgumentsKw: msg.ArgumentsKw,
		})
	}
}

// finishInvocation stops any pending timeout timer and removes inv's
// bookkeeping entries. The caller decides separately whether a reply still
// needs to be sent.
func (r *realm) finishInvocation(inv *invocation) {
	r.stopTimer(inv)
	delete(r.dealer.pendingCalls, callKey{inv.callerSession, inv.callerRequest})
	delete(r.dealer.pendingInvocations, invokeKey{inv.calleeSession, inv.invocationID})
}
