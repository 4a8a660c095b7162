package model

// Dimension selects the calculator flavour the model is instructed for.
type Dimension string

const (
	Dimension2D Dimension = "2d"
	Dimension3D Dimension = "3d"
)

func ParseDimension(s string) (Dimension, bool) {
	switch Dimension(s) {
	case "":
		return Dimension3D, true
	case Dimension2D, Dimension3D:
		return Dimension(s), true
	}
	return "", false
}

// DesmosExpression is one entry of the client's calculator state.
type DesmosExpression struct {
	ID    string `json:"id"`
	Latex string `json:"latex"`
}

type DesmosActionType string

const (
	DesmosActionAdd    DesmosActionType = "add"
	DesmosActionRemove DesmosActionType = "remove"
	DesmosActionSet    DesmosActionType = "set"
)

// DesmosAction is an instruction the client replays against its calculator.
// add carries the temporary id assigned by the server plus latex, remove only
// the id, set both.
type DesmosAction struct {
	Type  DesmosActionType `json:"type"`
	ID    string           `json:"id,omitempty"`
	Latex string           `json:"latex,omitempty"`
}

func AddAction(tempID, latex string) DesmosAction {
	return DesmosAction{Type: DesmosActionAdd, ID: tempID, Latex: latex}
}

func RemoveAction(id string) DesmosAction {
	return DesmosAction{Type: DesmosActionRemove, ID: id}
}

func SetAction(id, latex string) DesmosAction {
	return DesmosAction{Type: DesmosActionSet, ID: id, Latex: latex}
}
