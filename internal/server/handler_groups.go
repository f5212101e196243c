package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/me/gobank/internal/store"
	"github.com/me/gobank/pkg/model"
	"github.com/shopspring/decimal"
)

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req model.CreateGroupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		respondMessage(w, http.StatusBadRequest, "Group name is required")
		return
	}
	if req.InitialBalance.IsNegative() {
		respondMessage(w, http.StatusBadRequest, "Initial balance cannot be negative")
		return
	}
	s.createGroup(w, r, name, "", req.InitialBalance, nil)
}

func (s *Server) handleCreateGroupWithMembers(w http.ResponseWriter, r *http.Request) {
	var req model.CreateGroupWithMembersRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		respondMessage(w, http.StatusBadRequest, "Group name is required")
		return
	}
	ids := make([]int64, 0, len(req.MemberIDs))
	for _, raw := range req.MemberIDs {
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil || id <= 0 {
			respondMessage(w, http.StatusBadRequest, "Invalid member id: "+raw)
			return
		}
		ids = append(ids, id)
	}
	var desc string
	if req.Description != nil {
		desc = *req.Description
	}
	s.createGroup(w, r, name, desc, decimal.Zero, ids)
}

func (s *Server) createGroup(w http.ResponseWriter, r *http.Request, name, desc string, initial decimal.Decimal, members []int64) {
	out, err := s.store.CreateGroup(r.Context(), UserIDFromContext(r.Context()), name, desc, initial, members)
	if err != nil {
		respondStoreError(w, r, s.logger, err)
		return
	}
	s.logger.Info("group created", "group_id", out.GroupID, "members", len(members))
	respondOK(w, out)
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	var req model.AddMemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if _, ok := s.adminGroup(w, r, req.GroupID); !ok {
		return
	}
	if err := s.store.AddMember(r.Context(), req.GroupID, req.UserIDToAdd); err != nil {
		respondStoreError(w, r, s.logger, err)
		return
	}
	respondOK(w, model.MemberAdded{
		UserID:   req.UserIDToAdd,
		GroupID:  req.GroupID,
		JoinedAt: model.NewDate(time.Now()),
	})
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	var req model.RemoveMemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	g, ok := s.adminGroup(w, r, req.GroupID)
	if !ok {
		return
	}
	if req.UserIDToRemove == g.AdminID {
		respondMessage(w, http.StatusBadRequest, "The group admin cannot be removed")
		return
	}
	if err := s.store.RemoveMember(r.Context(), req.GroupID, req.UserIDToRemove); err != nil {
		respondStoreError(w, r, s.logger, err)
		return
	}
	respondOK(w, model.MemberRemoved{GroupID: req.GroupID, RemovedUserID: req.UserIDToRemove})
}

func (s *Server) handleGroupPayment(w http.ResponseWriter, r *http.Request) {
	var req model.GroupPaymentRequest
	if !decodeJSON(w, r, &req) || !requirePositive(w, req.Amount) {
		return
	}
	if _, ok := s.adminGroup(w, r, req.GroupID); !ok {
		return
	}
	out, err := s.store.PayFromGroup(r.Context(), req.GroupID, req.Account, req.Amount, req.Description)
	if err != nil {
		respondStoreError(w, r, s.logger, err)
		return
	}
	respondOK(w, out)
}

func (s *Server) handleDeactivateGroup(w http.ResponseWriter, r *http.Request) {
	var req model.GroupIDRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if _, ok := s.adminGroup(w, r, req.GroupID); !ok {
		return
	}
	if err := s.store.DeactivateGroup(r.Context(), req.GroupID); err != nil {
		respondStoreError(w, r, s.logger, err)
		return
	}
	s.logger.Info("group deactivated", "group_id", req.GroupID)
	respondMessage(w, http.StatusOK, "Group deactivated")
}

func (s *Server) handleGroupDetails(w http.ResponseWriter, r *http.Request) {
	var req model.GroupIDRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	g, ok := s.activeGroup(w, r, req.GroupID)
	if !ok {
		return
	}
	if _, member := g.Member(UserIDFromContext(r.Context())); !member {
		respondMessage(w, http.StatusForbidden, "You are not a member of this group")
		return
	}
	respondOK(w, g.Group)
}

// activeGroup loads a group and answers 404 when it is missing or closed.
func (s *Server) activeGroup(w http.ResponseWriter, r *http.Request, groupID int64) (*store.GroupRecord, bool) {
	g, err := s.store.GetGroup(r.Context(), groupID)
	if err != nil {
		respondStoreError(w, r, s.logger, err)
		return nil, false
	}
	if g == nil || !g.IsActive {
		respondMessage(w, http.StatusNotFound, "Group not found")
		return nil, false
	}
	return g, true
}

// adminGroup is activeGroup plus a 403 for callers other than the admin.
func (s *Server) adminGroup(w http.ResponseWriter, r *http.Request, groupID int64) (*store.GroupRecord, bool) {
	g, ok := s.activeGroup(w, r, groupID)
	if !ok {
		return nil, false
	}
	if g.AdminID != UserIDFromContext(r.Context()) {
		respondMessage(w, http.StatusForbidden, "Only the group admin can do this")
		return nil, false
	}
	return g, true
}
