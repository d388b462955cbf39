// SPDX-License-Identifier: MIT

// Package jsexpr builds JavaScript and JSX expression fragments as
// strings. All builders are pure and deterministic.
package jsexpr

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/greysonlalonde/js-utilities/internal/casing"
)

// Braces wraps a value in curly braces, the form JSX uses to embed
// expressions in attributes and children: <Component val={myValue}/>.
func Braces(val string) string {
	return "{" + val + "}"
}

// State references the state variable of a functional component.
// State("") yields "state", State("count") yields "state.count".
func State(val string) string {
	if val == "" {
		return "state"
	}
	return "state." + val
}

// Props references the props variable of a functional component.
// Props("") yields "props", Props("name") yields "props.name".
func Props(val string) string {
	if val == "" {
		return "props"
	}
	return "props." + val
}

// This references a member through the `this` keyword of a class
// component. This("") yields "this.", keeping the trailing dot for
// further composition.
func This(val string) string {
	return "this." + val
}

// ClassProps references props through `this` in a class component:
// ClassProps("name") yields "this.props.name".
func ClassProps(val string) string {
	return This(Props(val))
}

// ClassState references state through `this` in a class component:
// ClassState("count") yields "this.state.count".
func ClassState(val string) string {
	return This(State(val))
}

// Const builds a constant declaration: Const("MAX", "10") yields
// "const MAX = 10". The value is emitted verbatim.
func Const(name, value string) string {
	return "const " + name + " = " + value
}

// Ternary builds a braced JavaScript ternary expression. Operands must
// be scalars (string, bool, integer); they are JSON-encoded, so strings
// come out quoted and booleans lowercase. Component values and anything
// else are rejected.
//
//	Ternary("x > 10", 5, 10)  =>  {x > 10 ? 5 : 10}
func Ternary(condition string, truthy, falsy any) (string, error) {
	t, err := ternaryOperand(truthy)
	if err != nil {
		return "", err
	}
	f, err := ternaryOperand(falsy)
	if err != nil {
		return "", err
	}
	return Braces(condition + " ? " + t + " : " + f), nil
}

func ternaryOperand(v any) (string, error) {
	s, err := Scalar(v)
	if err != nil {
		return "", fmt.Errorf("type %T is not allowed in ternary expressions", v)
	}
	return s, nil
}

// InlineVariable builds an inline arrow referencing a variable:
// InlineVariable("myVar", "") yields "() => myVar" and
// InlineVariable("myVar", "props") yields "{props} => myVar".
func InlineVariable(name, props string) string {
	head := "()"
	if props != "" {
		head = Braces(props)
	}
	return head + " => " + name
}

// InlineFunction builds an inline arrow invoking a function:
// InlineFunction("add", "x, y", "x + y") yields
// "({x, y}) => add(x + y)". Empty props produce a bare "()" head.
func InlineFunction(name, props, value string) string {
	head := ""
	if props != "" {
		head = Braces(props)
	}
	return "(" + head + ") => " + name + "(" + value + ")"
}

// ArrowFunction builds a named arrow-function assignment wrapping
// InlineFunction in a block.
func ArrowFunction(name, props, value string) string {
	return name + " = { " + InlineFunction(name, props, value) + " }"
}

// ConstArrowFunction builds a constant bound to an inline function.
func ConstArrowFunction(name, props, value string) string {
	return Const(name, InlineFunction(name, props, value))
}

// ClassConstructor builds the constructor of a class component with the
// given initial state expression:
//
//	ClassConstructor("{ count: 0 }")
//	=> constructor(props){super(props);this.state = { count: 0 }}
func ClassConstructor(state string) string {
	internal := "super(props);" + ClassState("") + " = " + state
	return "constructor(props)" + Braces(internal)
}

// Return builds a return statement around the given expression list.
func Return(components string) string {
	return "return (" + components + ")"
}

// RenderReturn builds the render method of a class component returning
// the named component as JSX:
//
//	RenderReturn("ComponentA")  =>  render(){return (<ComponentA />)}
func RenderReturn(components string) string {
	return "render()" + Braces(Return("<"+components+" />"))
}

// ClassDeclaration builds an exported class header for the given React
// base kind ("component", "pure_component", "function"):
//
//	ClassDeclaration("MyComponent", "component")
//	=> export class MyComponent extends React.Component
func ClassDeclaration(name, kind string) string {
	return "export class " + name + " extends React." + titleWords(kind)
}

// ReactCall builds a namespaced React call from a snake_case hook name:
// ReactCall("use_state") yields "React.useState()".
func ReactCall(name string) string {
	parts := strings.Split(name, "_")
	action := parts[0]

	var hook strings.Builder
	for _, p := range parts[1:] {
		hook.WriteString(titleWords(casing.Camelize(p)))
	}
	return "React." + action + hook.String() + "()"
}

// ReactCallWith is ReactCall with call arguments:
// ReactCallWith("use_state", "0") yields "React.useState(0)".
func ReactCallWith(name string, args ...string) string {
	call := ReactCall(name)
	if len(args) == 0 {
		return call
	}
	return strings.TrimSuffix(call, "()") + "(" + strings.Join(args, ", ") + ")"
}

// Scalar JSON-encodes a prop or operand value. Only strings, booleans
// and integers are accepted; strings come out quoted and booleans
// lowercase, matching JavaScript literal syntax.
func Scalar(v any) (string, error) {
	switch v.(type) {
	case string, bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		b, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("encode scalar: %w", err)
		}
		return string(b), nil
	default:
		return "", fmt.Errorf("type %T is not a supported scalar", v)
	}
}

// titleWords upper-cases the first letter of each underscore-separated
// word and joins the words, so "pure_component" becomes "PureComponent".
func titleWords(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, w := range strings.Split(s, "_") {
		if w == "" {
			continue
		}
		r := []rune(w)
		b.WriteRune(unicode.ToUpper(r[0]))
		b.WriteString(string(r[1:]))
	}
	return b.String()
}
