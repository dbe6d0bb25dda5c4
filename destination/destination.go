// Package destination decodes PDF destinations: the array (or named
// reference into a destination table) that tells a viewer which page to
// show and how to frame it.
package destination

import (
	"fmt"
	"math"

	pdf "github.com/pdfray/pdfray"
)

// Destination represents a view of the document: either an explicit
// array of page/fit parameters, or a name that must be looked up in the
// document's destination table.
type Destination interface {
	DestinationType() Type
}

// Type identifies the kind of destination.
type Type pdf.Name

const (
	TypeXYZ   Type = "XYZ"
	TypeFit   Type = "Fit"
	TypeFitH  Type = "FitH"
	TypeFitV  Type = "FitV"
	TypeFitR  Type = "FitR"
	TypeFitB  Type = "FitB"
	TypeFitBH Type = "FitBH"
	TypeFitBV Type = "FitBV"
	TypeNamed Type = "Named"
)

// Target identifies the destination page, either as an indirect
// reference to a page object or (for remote/embedded go-to actions) an
// integer page number.
type Target pdf.Object

// Unset is a sentinel for a coordinate that should retain the viewer's
// current value. Use math.IsNaN to test for it.
var Unset = math.NaN()

// Decode reads a destination from a PDF object: an array (explicit
// destination), a name or string (named destination), or a dictionary
// with a /D entry wrapping either of those.
func Decode(r pdf.Getter, obj pdf.Object) (Destination, error) {
	obj, err := pdf.Resolve(r, obj)
	if err != nil {
		return nil, err
	}

	if name, ok := obj.(pdf.Name); ok {
		return &Named{Name: pdf.String(name)}, nil
	}
	if str, ok := obj.(pdf.String); ok {
		return &Named{Name: str}, nil
	}

	if dict, _ := pdf.GetDict(r, obj); dict != nil {
		if dObj := dict["D"]; dObj != nil {
			obj = dObj
		}
	}

	arr, err := pdf.GetArray(r, obj)
	if err != nil {
		return nil, err
	}
	if len(arr) < 2 {
		return nil, fmt.Errorf("destination: array too short")
	}

	page := Target(arr[0])

	typeName, _ := pdf.GetName(r, arr[1])

	switch Type(typeName) {
	case TypeXYZ:
		if len(arr) < 5 {
			return nil, fmt.Errorf("destination: XYZ requires 5 elements")
		}
		return &XYZ{
			Page: page,
			Left: optionalNumber(r, arr[2]),
			Top:  optionalNumber(r, arr[3]),
			Zoom: optionalNumber(r, arr[4]),
		}, nil

	case TypeFit:
		return &Fit{Page: page}, nil

	case TypeFitH:
		if len(arr) < 3 {
			return nil, fmt.Errorf("destination: FitH requires 3 elements")
		}
		return &FitH{Page: page, Top: optionalNumber(r, arr[2])}, nil

	case TypeFitV:
		if len(arr) < 3 {
			return nil, fmt.Errorf("destination: FitV requires 3 elements")
		}
		return &FitV{Page: page, Left: optionalNumber(r, arr[2])}, nil

	case TypeFitR:
		if len(arr) < 6 {
			return nil, fmt.Errorf("destination: FitR requires 6 elements")
		}
		left, _ := pdf.GetNumber(r, arr[2])
		bottom, _ := pdf.GetNumber(r, arr[3])
		right, _ := pdf.GetNumber(r, arr[4])
		top, _ := pdf.GetNumber(r, arr[5])
		return &FitR{Page: page, Left: float64(left), Bottom: float64(bottom),
			Right: float64(right), Top: float64(top)}, nil

	case TypeFitB:
		return &FitB{Page: page}, nil

	case TypeFitBH:
		if len(arr) < 3 {
			return nil, fmt.Errorf("destination: FitBH requires 3 elements")
		}
		return &FitBH{Page: page, Top: optionalNumber(r, arr[2])}, nil

	case TypeFitBV:
		if len(arr) < 3 {
			return nil, fmt.Errorf("destination: FitBV requires 3 elements")
		}
		return &FitBV{Page: page, Left: optionalNumber(r, arr[2])}, nil

	default:
		return nil, fmt.Errorf("destination: unknown type %q", typeName)
	}
}

// XYZ displays the page with (Left, Top) at the window's upper-left
// corner, magnified by Zoom. Unset retains the viewer's current value; a
// Zoom of 0 means the same as Unset.
type XYZ struct {
	Page            Target
	Left, Top, Zoom float64
}

func (d *XYZ) DestinationType() Type { return TypeXYZ }

// Fit displays the page scaled to fit the window in both dimensions.
type Fit struct {
	Page Target
}

func (d *Fit) DestinationType() Type { return TypeFit }

// FitH displays the page with Top at the window's top edge, scaled to
// fit the page's full width.
type FitH struct {
	Page Target
	Top  float64
}

func (d *FitH) DestinationType() Type { return TypeFitH }

// FitV displays the page with Left at the window's left edge, scaled to
// fit the page's full height.
type FitV struct {
	Page Target
	Left float64
}

func (d *FitV) DestinationType() Type { return TypeFitV }

// FitR displays the page scaled to fit the given rectangle within the
// window.
type FitR struct {
	Page                     Target
	Left, Bottom, Right, Top float64
}

func (d *FitR) DestinationType() Type { return TypeFitR }

// FitB displays the page scaled to fit its bounding box within the
// window.
type FitB struct {
	Page Target
}

func (d *FitB) DestinationType() Type { return TypeFitB }

// FitBH is like FitH but scales to the page's bounding box width.
type FitBH struct {
	Page Target
	Top  float64
}

func (d *FitBH) DestinationType() Type { return TypeFitBH }

// FitBV is like FitV but scales to the page's bounding box height.
type FitBV struct {
	Page Target
	Left float64
}

func (d *FitBV) DestinationType() Type { return TypeFitBV }

// Named is a destination that must be resolved against the document's
// named-destination table (the /Dests name tree, or the older /Dests
// dictionary).
type Named struct {
	Name pdf.String
}

func (d *Named) DestinationType() Type { return TypeNamed }

func optionalNumber(r pdf.Getter, obj pdf.Object) float64 {
	if obj == nil {
		return Unset
	}
	num, err := pdf.GetNumber(r, obj)
	if err != nil {
		return Unset
	}
	return float64(num)
}
