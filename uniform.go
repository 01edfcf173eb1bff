package orrery

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Uniform is a value that can be written to a program uniform. The set of
// implementations is closed: UniformBool, UniformFloat, UniformVec3,
// UniformMat3 and UniformMat4.
type Uniform interface {
	// GLSLType returns the shader type name ("bool", "vec3", ...).
	GLSLType() string
	isUniform()
}

// UniformBool is a bool uniform.
type UniformBool bool

// UniformFloat is a float uniform.
type UniformFloat float32

// UniformVec3 is a vec3 uniform.
type UniformVec3 mgl32.Vec3

// UniformMat3 is a mat3 uniform (column-major).
type UniformMat3 mgl32.Mat3

// UniformMat4 is a mat4 uniform (column-major).
type UniformMat4 mgl32.Mat4

func (UniformBool) GLSLType() string  { return "bool" }
func (UniformFloat) GLSLType() string { return "float" }
func (UniformVec3) GLSLType() string  { return "vec3" }
func (UniformMat3) GLSLType() string  { return "mat3" }
func (UniformMat4) GLSLType() string  { return "mat4" }

func (UniformBool) isUniform()  {}
func (UniformFloat) isUniform() {}
func (UniformVec3) isUniform()  {}
func (UniformMat3) isUniform()  {}
func (UniformMat4) isUniform()  {}

func (u UniformBool) String() string  { return fmt.Sprintf("bool(%t)", bool(u)) }
func (u UniformFloat) String() string { return fmt.Sprintf("float(%g)", float32(u)) }
func (u UniformVec3) String() string  { return fmt.Sprintf("vec3(%g, %g, %g)", u[0], u[1], u[2]) }

// Well-known uniform names written by the scene and the traversal.
const (
	UniformProjection = "projectionMatrix"
	UniformModelView  = "modelViewMatrix"
	UniformNormal     = "normalMatrix"
	UniformAmbient    = "ambientLight"
)

// normalMatrix returns the inverse-transpose of the upper 3x3 of mv.
// Singular matrices fall back to the plain upper 3x3.
func normalMatrix(mv mgl32.Mat4) mgl32.Mat3 {
	m := mv.Mat3()
	if m.Det() == 0 {
		return m
	}
	return m.Inv().Transpose()
}
