package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/usami-ray/go-pathtracer/pkg/core"
	"github.com/usami-ray/go-pathtracer/pkg/geometry"
	"github.com/usami-ray/go-pathtracer/pkg/lights"
	"github.com/usami-ray/go-pathtracer/pkg/material"
	"github.com/usami-ray/go-pathtracer/pkg/scene"
)

// InspectResponse represents the JSON response for object inspection
type InspectResponse struct {
	Hit          bool                   `json:"hit"`
	MaterialType string                 `json:"materialType,omitempty"`
	GeometryType string                 `json:"geometryType,omitempty"`
	Emitter      bool                   `json:"emitter"`
	Point        [3]float64             `json:"point"`
	Normal       [3]float64             `json:"normal"`
	Distance     float64                `json:"distance"`
	FrontFace    bool                   `json:"frontFace"`
	Properties   map[string]interface{} `json:"properties,omitempty"`
}

func vec3JSON(v core.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

func hexColor(c core.Vec3) string {
	c = c.Clamp(0, 1)
	return fmt.Sprintf("#%02x%02x%02x", int(c.X*255), int(c.Y*255), int(c.Z*255))
}

// extractMaterialInfo describes a material; emitter-only surfaces have none
func extractMaterialInfo(mat core.Material) (string, map[string]interface{}) {
	properties := make(map[string]interface{})

	switch m := mat.(type) {
	case nil:
		return "none", properties
	case *material.Lambertian:
		if solid, ok := m.Albedo.(*material.SolidColor); ok {
			properties["albedo"] = vec3JSON(solid.Color)
			properties["color"] = hexColor(solid.Color)
		} else {
			properties["texture"] = fmt.Sprintf("%T", m.Albedo)
		}
		return "lambertian", properties
	case *material.Mirror:
		properties["albedo"] = vec3JSON(m.Albedo)
		properties["color"] = hexColor(m.Albedo)
		return "mirror", properties
	case *material.Dielectric:
		properties["refractiveIndex"] = m.RefractiveIndex
		properties["color"] = "#ffffff"
		return "dielectric", properties
	default:
		return "unknown", properties
	}
}

// extractGeometryInfo describes the shape of a primitive
func extractGeometryInfo(shape geometry.Shape) (string, map[string]interface{}) {
	properties := make(map[string]interface{})

	switch geom := shape.(type) {
	case *geometry.Sphere:
		properties["center"] = vec3JSON(geom.Center)
		properties["radius"] = geom.Radius
		return "sphere", properties
	case *geometry.Quad:
		properties["corner"] = vec3JSON(geom.Corner)
		properties["u"] = vec3JSON(geom.U)
		properties["v"] = vec3JSON(geom.V)
		properties["normal"] = vec3JSON(geom.Normal)
		return "quad", properties
	case *geometry.Disc:
		properties["center"] = vec3JSON(geom.Center)
		properties["normal"] = vec3JSON(geom.Normal)
		properties["radius"] = geom.Radius
		return "disc", properties
	case *geometry.Triangle:
		properties["vertices"] = [][3]float64{vec3JSON(geom.V0), vec3JSON(geom.V1), vec3JSON(geom.V2)}
		return "triangle", properties
	case *geometry.Box:
		properties["center"] = vec3JSON(geom.Center)
		properties["size"] = vec3JSON(geom.Size)
		properties["rotation"] = vec3JSON(geom.Rotation)
		return "box", properties
	case *geometry.TriangleMesh:
		properties["triangleCount"] = geom.GetTriangleCount()
		bbox := geom.BoundingBox()
		properties["boundingBox"] = map[string]interface{}{
			"min": vec3JSON(bbox.Min),
			"max": vec3JSON(bbox.Max),
		}
		return "triangle_mesh", properties
	default:
		return "unknown", properties
	}
}

// InspectResult contains the hit through a pixel and the primitive that produced it
type InspectResult struct {
	Hit       bool
	Isect     core.IntersectionInfo
	Primitive *geometry.Primitive
}

// inspectPixel casts a ray through the pixel of a preprocessed scene and returns the first surface hit.
// A fixed seed keeps the ray stable between requests.
func inspectPixel(sc *scene.Scene, pixelX, pixelY int) InspectResult {
	ray := sc.Camera.GetRay(pixelX, pixelY, core.NewSeededSampler(0))

	var result InspectResult
	if !sc.Intersect(ray, core.NewWorkspace(), &result.Isect) {
		return result
	}
	result.Hit = true

	// The BVH does not report which primitive it hit, so find the one at the same distance
	for _, primitive := range sc.Primitives {
		var isect core.IntersectionInfo
		if primitive.Shape.Hit(ray, core.RayEpsilon, result.Isect.T+1e-9, &isect) && isect.T == result.Isect.T {
			result.Primitive = primitive
			break
		}
	}
	return result
}

// handleInspect handles ray casting inspection requests
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	req, err := parseRenderRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid scene parameters: " + err.Error()})
		return
	}

	pixelX, err := strconv.Atoi(r.URL.Query().Get("x"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid x coordinate"})
		return
	}
	pixelY, err := strconv.Atoi(r.URL.Query().Get("y"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid y coordinate"})
		return
	}

	sc, _, err := createScene(req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if pixelX < 0 || pixelX >= sc.Camera.Width() || pixelY < 0 || pixelY >= sc.Camera.Height() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Pixel coordinates out of bounds"})
		return
	}
	if err := sc.Preprocess(); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	result := inspectPixel(sc, pixelX, pixelY)
	if !result.Hit {
		writeJSON(w, http.StatusOK, InspectResponse{Hit: false})
		return
	}

	materialType, materialProps := extractMaterialInfo(result.Isect.Material)
	allProperties := map[string]interface{}{"material": materialProps}
	geometryType := "unknown"
	if result.Primitive != nil {
		var geometryProps map[string]interface{}
		geometryType, geometryProps = extractGeometryInfo(result.Primitive.Shape)
		allProperties["geometry"] = geometryProps
	}
	if light, ok := result.Isect.AreaLight.(*lights.AreaLight); ok {
		allProperties["light"] = map[string]interface{}{
			"emission": vec3JSON(light.Emission),
			"twoSided": light.TwoSided,
		}
	}

	writeJSON(w, http.StatusOK, InspectResponse{
		Hit:          true,
		MaterialType: materialType,
		GeometryType: geometryType,
		Emitter:      result.Isect.AreaLight != nil,
		Point:        vec3JSON(result.Isect.Point),
		Normal:       vec3JSON(result.Isect.Normal),
		Distance:     result.Isect.T,
		FrontFace:    result.Isect.FrontFace,
		Properties:   allProperties,
	})
}
