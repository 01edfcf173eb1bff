package ebitengpu

import "strings"

// --- Kage shader sources ---
// Kage has no vertex stage: meshes are projected on the CPU and each vertex
// carries its view-space normal encoded as n*0.5+0.5 in the vertex color and
// its texture coordinate in pixels of Images[0]. Every image bound to one
// program has the same size, so the same src addresses all of them.
//
// Uniform names are the scene's names converted by kageName:
// "light.direction" becomes LightDirection, "ambientLight" AmbientLight.
// Booleans arrive as 0 or 1 floats.

const phongShaderSrc = `//kage:unit pixels
package main

var AmbientLight vec3
var LightDirection vec3
var LightColor vec3
var MaterialAmbient vec3
var MaterialDiffuse vec3
var MaterialSpecular vec3
var MaterialShininess float

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	n := normalize(color.rgb*2.0 - 1.0)
	l := normalize(-LightDirection)
	ndotl := max(dot(n, l), 0)

	c := MaterialAmbient * AmbientLight
	c += MaterialDiffuse * LightColor * ndotl
	if ndotl > 0 {
		r := reflect(-l, n)
		c += MaterialSpecular * LightColor * pow(max(r.z, 0), MaterialShininess)
	}
	return vec4(clamp(c, vec3(0), vec3(1)), 1)
}
`

const planetShaderSrc = `//kage:unit pixels
package main

var AmbientLight vec3
var LightDirection vec3
var LightColor vec3
var MaterialAmbient vec3
var MaterialDiffuse vec3
var MaterialSpecular vec3
var MaterialShininess float

var Debug float
var WorldTexture float
var Night float
var Redgreen float
var Glossy float
var Clouds float

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	n := normalize(color.rgb*2.0 - 1.0)
	l := normalize(-LightDirection)
	ndotl := dot(n, l)
	lit := max(ndotl, 0)

	// Bathymetry: oceans are blue, land is black.
	bath := imageSrc2At(src).rgb
	water := step(0.05, bath.b)

	diffuse := MaterialDiffuse
	if WorldTexture > 0.5 {
		diffuse = imageSrc0At(src).rgb
	}
	if Redgreen > 0.5 {
		diffuse = mix(vec3(0.8, 0, 0), vec3(0, 0.8, 0), water)
	}

	specular := MaterialSpecular
	if Glossy > 0.5 {
		specular *= water
	}

	c := MaterialAmbient * AmbientLight
	c += diffuse * LightColor * lit
	if ndotl > 0 {
		r := reflect(-l, n)
		c += specular * LightColor * pow(max(r.z, 0), MaterialShininess)
	}

	if Night > 0.5 {
		// Fade city lights in across the terminator.
		dark := 1 - smoothstep(-0.2, 0.1, ndotl)
		c += imageSrc1At(src).rgb * dark
	}
	if Clouds > 0.5 {
		cloud := imageSrc3At(src).r
		c = mix(c, LightColor*max(lit, 0.05), cloud)
	}

	if Debug > 0.5 {
		// Longitude stripes and a red day side make orientation visible.
		uv := (src - imageSrc0Origin()) / imageSrc0Size()
		if fract(uv.x*24) < 0.08 {
			c *= 0.4
		}
		if ndotl > 0 {
			c = vec3(max(c.r, 0.5), c.g, c.b)
		}
	}
	return vec4(clamp(c, vec3(0), vec3(1)), 1)
}
`

// shaderSources are the programs every Device can link by name.
var shaderSources = map[string]string{
	"phong":  phongShaderSrc,
	"planet": planetShaderSrc,
}

// declaredUniforms returns the names of the top-level var declarations in a
// Kage source.
func declaredUniforms(src string) map[string]bool {
	out := make(map[string]bool)
	for _, line := range strings.Split(src, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 3 && fields[0] == "var" && !strings.HasPrefix(line, "\t") {
			out[fields[1]] = true
		}
	}
	return out
}

// kageName converts a scene uniform name to the exported identifier Kage
// requires: each dot-separated part is capitalized and the parts joined.
func kageName(name string) string {
	parts := strings.Split(name, ".")
	var b strings.Builder
	b.Grow(len(name))
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}
