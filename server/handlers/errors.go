package handlers

import stderrors "errors"

var (
	errHistoryNotArray = stderrors.New("history is missing or not an array")
	errTurnNotObject   = stderrors.New("history element is not an object")
)
