package renderer

const vertexShader = `
#version 410 core

layout (location = 0) in vec3 aPos;
layout (location = 1) in vec3 aNormal;

uniform mat4 uProjection;
uniform mat4 uView;
uniform mat4 uModel;
uniform mat4 uLightViewProj;

out vec3 vNormal;
out vec4 vLightSpace;

void main() {
	vec4 world = uModel * vec4(aPos, 1.0);
	vNormal = mat3(transpose(inverse(uModel))) * aNormal;
	vLightSpace = uLightViewProj * world;
	gl_Position = uProjection * uView * world;
}
`

// Diffuse is Lambertian with the 1/pi normalization, so light intensities
// are in the same units as the web viewer's physically based lights.
const fragmentShader = `
#version 410 core

const float RECIPROCAL_PI = 0.3183098861837907;

in vec3 vNormal;
in vec4 vLightSpace;

uniform vec4 uBaseColor;
uniform vec3 uEmissive;
uniform vec3 uAmbient;
uniform int uLightCount;
uniform vec3 uLightDir[4];
uniform vec3 uLightColor[4];

uniform sampler2DShadow uShadowMap;
uniform int uShadowLight;
uniform vec2 uShadowTexel;

out vec4 FragColor;

// 3x3 PCF over the hardware-filtered comparison.
float visibility(vec3 n, vec3 toLight) {
	vec3 p = vLightSpace.xyz / vLightSpace.w * 0.5 + 0.5;
	if (p.z > 1.0) {
		return 1.0;
	}
	float bias = max(0.005 * (1.0 - dot(n, toLight)), 0.0005);
	float sum = 0.0;
	for (int x = -1; x <= 1; x++) {
		for (int y = -1; y <= 1; y++) {
			sum += texture(uShadowMap, vec3(p.xy + vec2(x, y) * uShadowTexel, p.z - bias));
		}
	}
	return sum / 9.0;
}

void main() {
	vec3 n = normalize(vNormal);
	if (!gl_FrontFacing) {
		n = -n;
	}
	vec3 light = uAmbient;
	for (int i = 0; i < uLightCount; i++) {
		vec3 toLight = -uLightDir[i];
		float ndl = max(dot(n, toLight), 0.0);
		if (i == uShadowLight && ndl > 0.0) {
			ndl *= visibility(n, toLight);
		}
		light += uLightColor[i] * ndl;
	}
	FragColor = vec4(uBaseColor.rgb * light * RECIPROCAL_PI + uEmissive, uBaseColor.a);
}
`

const depthVertexShader = `
#version 410 core

layout (location = 0) in vec3 aPos;

uniform mat4 uLightViewProj;
uniform mat4 uModel;

void main() {
	gl_Position = uLightViewProj * uModel * vec4(aPos, 1.0);
}
`

const depthFragmentShader = `
#version 410 core

void main() {
}
`
